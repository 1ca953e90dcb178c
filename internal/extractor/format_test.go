package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatText_EmptyInputUnchanged(t *testing.T) {
	assert.Equal(t, "", FormatText(""))
	assert.Equal(t, "   \n  ", FormatText("   \n  "))
}

func TestFormatText_CollapsesWhitespace(t *testing.T) {
	got := FormatText("line one\r\nline two\r\n\r\n\r\n\r\nline three")
	assert.Equal(t, "line one\nline two\n\nline three", got)
}

func TestFormatText_InsertsParagraphBreaks(t *testing.T) {
	got := FormatText("First sentence ends here. Then another begins")
	assert.Equal(t, "First sentence ends here.\n\nThen another begins", got)
}

func TestFormatText_TagsQuestionMarkers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "numbered", in: "1. What is an atom?", want: "**1.** What is an atom?"},
		{name: "numbered paren", in: "12) Define momentum", want: "**12)** Define momentum"},
		{name: "lettered", in: "a) first option", want: "**a)** first option"},
		{name: "lettered parenthesized", in: "(b) second option", want: "**b)** second option"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatText(tt.in))
		})
	}
}

func TestFormatText_TagsAnswerOptions(t *testing.T) {
	got := FormatText("True\nFalse\nmaybe")
	assert.Equal(t, "- [ ] True\n- [ ] False\nmaybe", got)
}

func TestFormatText_TagsSectionHeaders(t *testing.T) {
	got := FormatText("Section 2\nsome body text")
	assert.Equal(t, "## Section 2\nsome body text", got)
}

func TestFormatText_FencesTables(t *testing.T) {
	got := FormatText("intro line\nName    Score\nAlice   91\nBob     78\noutro line")
	assert.Equal(t,
		"intro line\n```\nName    Score\nAlice   91\nBob     78\n```\noutro line",
		got)
}

func TestFormatText_SingleColumnLineIsNotATable(t *testing.T) {
	got := FormatText("just one\ngapped  line here\nand more")
	assert.NotContains(t, got, "```")
}

func TestFormatText_WrapsMathExpressions(t *testing.T) {
	got := FormatText("Solve x = 2 + 3 for x")
	assert.Equal(t, "Solve `x = 2 + 3` for x", got)
}

func TestFormatText_LeavesPlainWordsAlone(t *testing.T) {
	got := FormatText("read/write access and a well-known name")
	assert.NotContains(t, got, "`")
}

func TestFormatText_Idempotent(t *testing.T) {
	inputs := []string{
		"1. What is an atom?",
		"True\nFalse",
		"Section 2\nbody",
		"intro\nName    Score\nAlice   91\nBob     78",
		"Solve x = 2 + 3 for x",
		"First sentence ends here. Then another begins",
	}
	for _, in := range inputs {
		once := FormatText(in)
		assert.Equal(t, once, FormatText(once), "input: %q", in)
	}
}

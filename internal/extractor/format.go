package extractor

import (
	"regexp"
	"strings"
)

// FormatText приводит извлечённый текст к читаемому виду: независимые
// проходы в фиксированном порядке. Каждый проход устойчив к повторному
// применению (не оборачивает уже обработанное) и возвращает пустой вход
// без изменений. Шаг презентационный: для корректности извлечения
// он не требуется.
func FormatText(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	passes := []func(string) string{
		collapseWhitespace,
		insertParagraphBreaks,
		tagQuestionMarkers,
		tagAnswerOptions,
		tagSectionHeaders,
		fenceTables,
		wrapMathExpressions,
	}
	for _, pass := range passes {
		text = pass(text)
	}
	return text
}

var (
	reCRLF        = regexp.MustCompile(`\r\n?`)
	reTrailingWS  = regexp.MustCompile(`[ \t]+\n`)
	reBlankLines  = regexp.MustCompile(`\n{3,}`)
	reSpaceRun    = regexp.MustCompile(` {2,}`)
	reColumnGap   = regexp.MustCompile(`\S( {2,}|\t+)\S`)
	reSentenceCap = regexp.MustCompile(`([a-z][.!?]) ([A-Z])`)
	reNumbered    = regexp.MustCompile(`^(\d{1,3}[.)])\s+`)
	reLettered    = regexp.MustCompile(`^\(?([a-z][.)])\s+`)
	reOption      = regexp.MustCompile(`(?i)^(true|false|yes|no)[.]?$`)
	reHeader      = regexp.MustCompile(`(?i)^(section|part|exercise|problem)\s+([0-9]+|[ivxlc]+|[A-Z])\b`)
	reMath        = regexp.MustCompile(`[A-Za-z0-9.()]+(?:\s*[=+\-*/^]\s*[A-Za-z0-9.()]+)+`)
)

// collapseWhitespace нормализует переводы строк и схлопывает пробелы.
// Строки с колоночными промежутками (табуляция или два и более пробела
// между словами) сохраняются как есть для последующего распознавания таблиц.
func collapseWhitespace(text string) string {
	text = reCRLF.ReplaceAllString(text, "\n")
	text = reTrailingWS.ReplaceAllString(text, "\n")
	text = reBlankLines.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if isColumnLine(line) {
			continue
		}
		lines[i] = reSpaceRun.ReplaceAllString(line, " ")
	}
	return strings.Join(lines, "\n")
}

// insertParagraphBreaks разбивает поток на абзацы после завершающей
// предложение пунктуации, за которой следует заглавная буква.
// Перед пунктуацией требуется строчная буква, чтобы не разрезать
// нумерованные маркеры вида "1. Вопрос" и сокращения.
func insertParagraphBreaks(text string) string {
	return reSentenceCap.ReplaceAllString(text, "$1\n\n$2")
}

// tagQuestionMarkers помечает нумерованные и буквенные маркеры вопросов.
func tagQuestionMarkers(text string) string {
	return mapLines(text, func(line string) string {
		if strings.Contains(line, "**") {
			return line
		}
		if m := reNumbered.FindStringSubmatch(line); m != nil {
			return "**" + m[1] + "**" + line[len(m[0])-1:]
		}
		if m := reLettered.FindStringSubmatch(line); m != nil {
			return "**" + m[1] + "**" + line[len(m[0])-1:]
		}
		return line
	})
}

// tagAnswerOptions помечает строки-варианты ответов true/false и yes/no.
func tagAnswerOptions(text string) string {
	return mapLines(text, func(line string) string {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- [ ]") {
			return line
		}
		if reOption.MatchString(trimmed) {
			return "- [ ] " + trimmed
		}
		return line
	})
}

// tagSectionHeaders помечает заголовки вида "Section N", "Part X",
// "Exercise N", "Problem N".
func tagSectionHeaders(text string) string {
	return mapLines(text, func(line string) string {
		if strings.HasPrefix(line, "#") {
			return line
		}
		if reHeader.MatchString(strings.TrimSpace(line)) {
			return "## " + strings.TrimSpace(line)
		}
		return line
	})
}

// fenceTables оборачивает непрерывные последовательности из двух и более
// колоночных строк в блок с ограждением, сохраняя выравнивание.
func fenceTables(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	inFence := false
	i := 0
	for i < len(lines) {
		line := lines[i]
		if line == "```" {
			inFence = !inFence
			out = append(out, line)
			i++
			continue
		}
		if !inFence && isColumnLine(line) {
			j := i
			for j < len(lines) && isColumnLine(lines[j]) {
				j++
			}
			if j-i >= 2 {
				out = append(out, "```")
				out = append(out, lines[i:j]...)
				out = append(out, "```")
				i = j
				continue
			}
		}
		out = append(out, line)
		i++
	}
	return strings.Join(out, "\n")
}

// wrapMathExpressions оборачивает арифметические и алгебраические
// подстроки в маркеры встроенного кода. Строки, уже содержащие маркеры,
// не обрабатываются повторно.
func wrapMathExpressions(text string) string {
	return mapLines(text, func(line string) string {
		if strings.Contains(line, "`") {
			return line
		}
		return reMath.ReplaceAllStringFunc(line, func(expr string) string {
			// Требуем цифру или знак равенства, чтобы не зацепить
			// обычные слова с дефисами и слэшами.
			if !strings.ContainsAny(expr, "0123456789=") {
				return expr
			}
			return "`" + expr + "`"
		})
	})
}

func mapLines(text string, fn func(string) string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = fn(line)
	}
	return strings.Join(lines, "\n")
}

func isColumnLine(line string) bool {
	return strings.TrimSpace(line) != "" && reColumnGap.MatchString(line)
}

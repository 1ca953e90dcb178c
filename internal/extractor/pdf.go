package extractor

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"unicode/utf16"

	"github.com/solvem8/backend/internal/lib/sl"
)

// scannedPDFPlaceholder возвращается вызывающему, когда ни разбор
// content stream, ни OCR не дали текста. Не является ошибкой.
const scannedPDFPlaceholder = "No readable text was found in this PDF. " +
	"The document may consist of scanned images of insufficient quality."

// minPDFTextLength порог, ниже которого результат разбора считается
// пустым и выполняется OCR по тем же байтам.
const minPDFTextLength = 16

var pdfMagic = []byte("%PDF-")

// pdfStrategy извлекает текст из PDF, разбирая строковые объекты
// content stream. Для сканированных документов выполняет OCR fallback.
type pdfStrategy struct {
	ocr *ocrEngine
	log *slog.Logger
}

func (p *pdfStrategy) Format() string { return "pdf" }

// Extract разбирает content stream документа. Если текст не найден,
// короче порога или разбор завершился ошибкой, запускается OCR по тем же
// байтам. Сбой OCR на этом пути не пробрасывается: вызывающему
// возвращается текст-заглушка.
func (p *pdfStrategy) Extract(ctx context.Context, data []byte) (string, error) {
	const op = "extractor.pdf.Extract"

	text, parseErr := scanContentStreams(data)
	text = strings.TrimSpace(text)
	if parseErr == nil && len(text) >= minPDFTextLength {
		return text, nil
	}
	if parseErr != nil {
		p.log.Warn("pdf parse failed, falling back to OCR", slog.String("op", op), sl.Err(parseErr))
	}

	ocrText, ocrErr := p.ocr.PDFText(ctx, data)
	ocrText = strings.TrimSpace(ocrText)
	if ocrErr == nil && ocrText != "" {
		return ocrText, nil
	}
	if ocrErr != nil {
		p.log.Warn("pdf OCR fallback failed", slog.String("op", op), sl.Err(ocrErr))
	}

	// Разбор дал хоть что-то — возвращаем это, а не заглушку.
	if parseErr == nil && text != "" {
		return text, nil
	}
	return scannedPDFPlaceholder, nil
}

// scanContentStreams находит все stream-объекты документа в порядке
// следования и собирает из них строковые литералы: скобочные "(...)"
// и шестнадцатеричные "<...>" по грамматике content stream.
func scanContentStreams(data []byte) (string, error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return "", errors.New("missing %PDF header")
	}

	var pages []string
	pos := 0
	for {
		idx := bytes.Index(data[pos:], []byte("stream"))
		if idx < 0 {
			break
		}
		start := pos + idx
		// Пропускаем вхождение внутри "endstream".
		if start >= 3 && bytes.Equal(data[start-3:start], []byte("end")) {
			pos = start + len("stream")
			continue
		}
		payloadStart := start + len("stream")
		if payloadStart < len(data) && data[payloadStart] == '\r' {
			payloadStart++
		}
		if payloadStart < len(data) && data[payloadStart] == '\n' {
			payloadStart++
		}
		end := bytes.Index(data[payloadStart:], []byte("endstream"))
		if end < 0 {
			return "", errors.New("unterminated stream object")
		}
		payload := data[payloadStart : payloadStart+end]
		pos = payloadStart + end + len("endstream")

		if inflated, err := inflate(payload); err == nil {
			payload = inflated
		}
		if runs := extractTextRuns(payload); runs != "" {
			pages = append(pages, runs)
		}
	}
	if len(pages) == 0 {
		return "", nil
	}
	return strings.Join(pages, "\n"), nil
}

// inflate распаковывает FlateDecode-поток; для несжатых потоков вернёт ошибку.
func inflate(payload []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = r.Close()
	}()
	return io.ReadAll(r)
}

// extractTextRuns собирает строковые объекты одного content stream.
// Последовательные литералы соединяются пробелом.
func extractTextRuns(payload []byte) string {
	var runs []string
	i := 0
	for i < len(payload) {
		switch payload[i] {
		case '(':
			run, next := parseLiteralString(payload, i)
			if run != "" {
				runs = append(runs, run)
			}
			i = next
		case '<':
			if i+1 < len(payload) && payload[i+1] == '<' {
				i += 2 // словарь, не строка
				continue
			}
			run, next := parseHexString(payload, i)
			if run != "" {
				runs = append(runs, run)
			}
			i = next
		default:
			i++
		}
	}
	return strings.Join(runs, " ")
}

// parseLiteralString разбирает скобочный литерал начиная с открывающей
// скобки: вложенные скобки, экранирование и восьмеричные коды.
func parseLiteralString(payload []byte, start int) (string, int) {
	var out []byte
	depth := 0
	i := start
	for i < len(payload) {
		c := payload[i]
		switch c {
		case '\\':
			if i+1 >= len(payload) {
				i++
				continue
			}
			next := payload[i+1]
			switch next {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(', ')', '\\':
				out = append(out, next)
			case '\n':
				// перенос строки внутри литерала
			default:
				if next >= '0' && next <= '7' {
					val, consumed := parseOctal(payload, i+1)
					out = append(out, val)
					i += consumed - 1
				} else {
					out = append(out, next)
				}
			}
			i += 2
		case '(':
			if depth > 0 {
				out = append(out, c)
			}
			depth++
			i++
		case ')':
			depth--
			if depth == 0 {
				return decodeTextString(out), i + 1
			}
			out = append(out, c)
			i++
		default:
			out = append(out, c)
			i++
		}
	}
	return decodeTextString(out), i
}

func parseOctal(payload []byte, start int) (byte, int) {
	val := 0
	consumed := 0
	for consumed < 3 && start+consumed < len(payload) {
		c := payload[start+consumed]
		if c < '0' || c > '7' {
			break
		}
		val = val*8 + int(c-'0')
		consumed++
	}
	return byte(val), consumed
}

// parseHexString разбирает строку вида <48656C6C6F>. Нечётное число цифр
// дополняется нулём по грамматике PDF.
func parseHexString(payload []byte, start int) (string, int) {
	var digits []byte
	i := start + 1
	for i < len(payload) && payload[i] != '>' {
		c := payload[i]
		if isHexDigit(c) {
			digits = append(digits, c)
		} else if !isPDFWhitespace(c) {
			return "", i + 1 // не строковый объект
		}
		i++
	}
	if i < len(payload) {
		i++ // закрывающая '>'
	}
	if len(digits) == 0 {
		return "", i
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for j := 0; j+1 < len(digits); j += 2 {
		out = append(out, hexValue(digits[j])<<4|hexValue(digits[j+1]))
	}
	return decodeTextString(out), i
}

// decodeTextString переводит байты строкового объекта в текст.
// Строки с BOM FE FF декодируются как UTF-16BE, остальные — побайтово.
func decodeTextString(raw []byte) string {
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		u16 := make([]uint16, 0, (len(raw)-2)/2)
		for i := 2; i+1 < len(raw); i += 2 {
			u16 = append(u16, uint16(raw[i])<<8|uint16(raw[i+1]))
		}
		return string(utf16.Decode(u16))
	}
	return string(raw)
}

func isHexDigit(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func isPDFWhitespace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func hexValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// xlsxStrategy извлекает текст из книги XLSX: один текстовый блок на лист,
// строки сериализуются значениями ячеек через табуляцию, каждому листу
// предшествует заголовок "Sheet: <имя>".
type xlsxStrategy struct{}

func (xlsxStrategy) Format() string { return "xlsx" }

func (xlsxStrategy) Extract(_ context.Context, data []byte) (string, error) {
	const op = "extractor.xlsx.Extract"

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = f.Close()
	}()

	var blocks []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("%s: sheet %q: %w", op, sheet, err)
		}
		var sb strings.Builder
		sb.WriteString("Sheet: " + sheet)
		for _, row := range rows {
			sb.WriteByte('\n')
			sb.WriteString(strings.Join(row, "\t"))
		}
		blocks = append(blocks, sb.String())
	}
	return strings.Join(blocks, "\n\n"), nil
}

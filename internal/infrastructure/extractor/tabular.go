package extractor

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mfandino/area-assistant/internal/core/domain"
)

// extractXLSX renders each sheet as a markdown table so that column
// structure survives chunking and stays legible in retrieved context.
func extractXLSX(data []byte) (string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", domain.WrapError("xlsx", "open workbook", err)
	}
	defer wb.Close()

	var sb strings.Builder
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", domain.WrapError("xlsx", "read sheet "+sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("## " + sheet + "\n\n")
		writeMarkdownTable(&sb, rows)
	}
	return strings.TrimSpace(sb.String()), nil
}

func extractCSV(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", domain.WrapError("csv", "parse", err)
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return "", nil
	}

	var sb strings.Builder
	writeMarkdownTable(&sb, rows)
	return strings.TrimSpace(sb.String()), nil
}

func writeMarkdownTable(sb *strings.Builder, rows [][]string) {
	for i, row := range rows {
		sb.WriteString("| ")
		sb.WriteString(strings.Join(row, " | "))
		sb.WriteString(" |\n")
		if i == 0 {
			sb.WriteString("|")
			sb.WriteString(strings.Repeat(" --- |", len(row)))
			sb.WriteByte('\n')
		}
	}
}

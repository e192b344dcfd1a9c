package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column maps a spreadsheet header to a record key.
type Column struct {
	Title string
	Key   string
}

var ErrEmptySheet = errors.New("the sheet has no data rows")

// BuildSheet renders rows as an xlsx workbook with columns as the header.
func BuildSheet(columns []Column, rows []map[string]string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err = f.SetCellValue(sheet, cell, col.Title); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	for r, row := range rows {
		for i, col := range columns {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return nil, err
			}
			if err = f.SetCellValue(sheet, cell, row[col.Key]); err != nil {
				return nil, fmt.Errorf("write row %d: %w", r+1, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadSheet parses the first sheet of an xlsx workbook. Headers are matched
// to columns by title, ignoring case; unknown headers are skipped and blank
// rows dropped.
func ReadSheet(r io.Reader, columns []Column) ([]map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptySheet
	}

	byTitle := make(map[string]string, len(columns))
	for _, col := range columns {
		byTitle[strings.ToLower(strings.TrimSpace(col.Title))] = col.Key
	}
	keys := make([]string, len(rows[0]))
	for i, title := range rows[0] {
		keys[i] = byTitle[strings.ToLower(strings.TrimSpace(title))]
	}

	var out []map[string]string
	for _, row := range rows[1:] {
		record := make(map[string]string, len(columns))
		blank := true
		for i, value := range row {
			if i >= len(keys) || keys[i] == "" {
				continue
			}
			value = strings.TrimSpace(value)
			if value != "" {
				blank = false
			}
			record[keys[i]] = value
		}
		if !blank {
			out = append(out, record)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptySheet
	}
	return out, nil
}

// Package importer reads uploaded spreadsheets into header-keyed records.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// MaxFileSize is the largest upload accepted by Parse
const MaxFileSize = 10 << 20

var (
	ErrUnsupportedFormat = errors.New("unsupported file type, expected .csv, .xls or .xlsx")
	ErrFileTooLarge      = errors.New("file is too large")
	ErrNoHeader          = errors.New("file has no header row")
)

// Format is the spreadsheet flavor of an upload
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

// DetectFormat picks the reader from the file extension
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xls", ".xlsx":
		return FormatExcel, nil
	}
	return "", ErrUnsupportedFormat
}

// Parse returns one record per data row, keyed by the trimmed header cells.
// Rows with no content are skipped and short rows are padded with "".
func Parse(filename string, r io.Reader) ([]map[string]interface{}, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	var rows [][]string
	switch format {
	case FormatCSV:
		rows, err = readCSV(data)
	case FormatExcel:
		rows, err = readExcel(data)
	}
	if err != nil {
		return nil, err
	}
	return toRecords(rows)
}

func readCSV(data []byte) ([][]string, error) {
	// A UTF-8 byte order mark would end up in the first header
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}

// readExcel reads the first sheet only
func readExcel(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func toRecords(rows [][]string) ([]map[string]interface{}, error) {
	start := -1
	for i, row := range rows {
		if !isEmptyRow(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}

	headers := make([]string, len(rows[start]))
	for i, h := range rows[start] {
		headers[i] = strings.TrimSpace(h)
	}

	records := []map[string]interface{}{}
	for _, row := range rows[start+1:] {
		if isEmptyRow(row) {
			continue
		}
		record := make(map[string]interface{}, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			value := ""
			if i < len(row) {
				value = row[i]
			}
			record[h] = value
		}
		records = append(records, record)
	}
	return records, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

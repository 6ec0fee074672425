package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat("leads.CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = DetectFormat("leads.xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatExcel, f)

	f, err = DetectFormat("old.xls")
	require.NoError(t, err)
	assert.Equal(t, FormatExcel, f)

	_, err = DetectFormat("notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParse_CSV(t *testing.T) {
	input := "\xef\xbb\xbf Name , Email,Phone\n" +
		"Ann,ann@acme.com,5551234\n" +
		"\n" +
		",,\n" +
		"Bob,bob@initech.com\n"

	records, err := Parse("contacts.csv", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, map[string]interface{}{"Name": "Ann", "Email": "ann@acme.com", "Phone": "5551234"}, records[0])
	assert.Equal(t, map[string]interface{}{"Name": "Bob", "Email": "bob@initech.com", "Phone": ""}, records[1])
}

func TestParse_CSVHeaderOnly(t *testing.T) {
	records, err := Parse("contacts.csv", strings.NewReader("name,email\n"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParse_EmptyFile(t *testing.T) {
	_, err := Parse("contacts.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestParse_TooLarge(t *testing.T) {
	big := bytes.Repeat([]byte("a"), MaxFileSize+1)
	_, err := Parse("contacts.csv", bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestParse_Excel(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Name"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "Email"))
	require.NoError(t, f.SetCellValue(sheet, "C1", "Company"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "Ann"))
	require.NoError(t, f.SetCellValue(sheet, "C2", "Acme"))
	require.NoError(t, f.SetCellValue(sheet, "A3", "Bob"))
	require.NoError(t, f.SetCellValue(sheet, "B3", "bob@initech.com"))

	_, err := f.NewSheet("Ignored")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Ignored", "A1", "Other"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	records, err := Parse("contacts.xlsx", buf)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, map[string]interface{}{"Name": "Ann", "Email": "", "Company": "Acme"}, records[0])
	assert.Equal(t, map[string]interface{}{"Name": "Bob", "Email": "bob@initech.com", "Company": ""}, records[1])
}

func TestParse_InvalidExcel(t *testing.T) {
	_, err := Parse("contacts.xlsx", strings.NewReader("not a zip"))
	assert.Error(t, err)
}

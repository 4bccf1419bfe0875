package sheet

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/matrix"
)

func Test_ExportImport(t *testing.T) {
	m := matrix.Matrix{
		{1, 0, 1},
		{0, 1, 1},
	}
	path := filepath.Join(t.TempDir(), "qr.xlsx")
	require.NoError(t, Export(path, m))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	sheet := f.GetSheetName(0)
	for cell, want := range map[string]string{
		"A1": "",
		"B1": "0",
		"D1": "2",
		"A2": "0",
		"A3": "1",
		"B2": "1",
		"C2": "0",
		"D3": "1",
	} {
		got, err := f.GetCellValue(sheet, cell)
		require.NoError(t, err)
		assert.Equal(t, want, got, cell)
	}

	back, err := Import(path)
	require.NoError(t, err)
	assert.Equal(t, m, back)
}

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "qr_code.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func Test_ParseWorkbook(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"label", "a", "b", "c", "d"},
		{"intro", 1, 2, 3, 4},
		{"v1", 7, "0x1f", "0x0", 8},
		{"v1", "", "0xff", 12, "0xa"},
		{"v2", 1, "0x3", "", ""},
	})

	blocks := []Block{
		{Version: 3, RowStart: 1, RowEnd: 3, ColStart: 1, ColEnd: 5},
		{Version: 4, RowStart: 3, RowEnd: 10, ColStart: 1, ColEnd: 3},
	}
	parsed, err := ParseWorkbook(path, blocks)
	require.NoError(t, err)
	assert.Equal(t, []Parsed{
		{Version: 3, Values: []string{"0x1f", "0x0", "0xff", "0xa"}},
		{Version: 4, Values: []string{"0x3"}},
	}, parsed)

	var buf bytes.Buffer
	require.NoError(t, WriteParsed(&buf, parsed))
	assert.Equal(t,
		"V3 MATRIX: \nMSB2LSB(0x1f), MSB2LSB(0x0), MSB2LSB(0xff), MSB2LSB(0xa)\n\n\n"+
			"V4 MATRIX: \nMSB2LSB(0x3)\n\n\n",
		buf.String())
}

func Test_ParseWorkbookInvalidBlock(t *testing.T) {
	_, err := ParseWorkbook("unused.xlsx", []Block{{Version: 3, RowStart: 4, RowEnd: 2, ColStart: 0, ColEnd: 1}})
	assert.Error(t, err)

	_, err = ParseWorkbook(filepath.Join(t.TempDir(), "missing.xlsx"), DefaultBlocks)
	assert.Error(t, err)
}

func Test_DefaultBlocks(t *testing.T) {
	require.Len(t, DefaultBlocks, 5)
	for i, b := range DefaultBlocks {
		assert.Equal(t, i+3, b.Version)
		assert.NoError(t, b.validate())
		assert.Equal(t, matrix.Size, b.ColEnd-b.ColStart)
	}
	assert.True(t, strings.HasPrefix(matrix.Join([]string{"0x1"}, 45), "MSB2LSB("))
}

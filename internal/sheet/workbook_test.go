package sheet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/slotx-reports/internal/domain"
)

func buildXLSX(t *testing.T, sheets map[string][][]interface{}, order ...string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadFirst_SkipsBlankRows(t *testing.T) {
	buf := buildXLSX(t, map[string][][]interface{}{
		"Data": {
			{" Brand ", "Qty", "Total"},
			{"Nike", 2, 500},
			{nil, nil, nil},
			{"Adidas", 1, 120.5},
		},
	}, "Data")

	tbl, err := ReadFirst("sales", buf)
	require.NoError(t, err)
	assert.Equal(t, "Data", tbl.Sheet)
	assert.Equal(t, []string{"Brand", "Qty", "Total"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, 2, tbl.Rows[0].Number)
	assert.Equal(t, 4, tbl.Rows[1].Number)
	assert.Equal(t, "Adidas", tbl.Rows[1].Get(0))
	assert.Equal(t, "", tbl.Rows[1].Get(7))
}

func TestWorkbook_TableLookup(t *testing.T) {
	buf := buildXLSX(t, map[string][][]interface{}{
		"Alexandria": {{"Brand Name"}, {"Nike"}},
		"Merged":     {{"Brand Name"}, {"Adidas"}},
	}, "Alexandria", "Merged")

	wb, err := Open("deals", buf)
	require.NoError(t, err)
	defer wb.Close()

	assert.True(t, wb.HasSheet(" merged "))
	tbl, err := wb.Table("MERGED")
	require.NoError(t, err)
	assert.Equal(t, "Adidas", tbl.Rows[0].Get(0))

	_, err = wb.Table("Zamalek")
	var srcErr *domain.SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, "Zamalek", srcErr.Sheet)
}

func TestOpen_RejectsGarbage(t *testing.T) {
	_, err := Open("inventory", bytes.NewBufferString("not a workbook"))
	var srcErr *domain.SourceError
	assert.True(t, errors.As(err, &srcErr))

	_, err = Open("inventory", nil)
	assert.True(t, errors.As(err, &srcErr))
}

func TestDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1,250.50", "1250.5", true},
		{" 10 ", "10", true},
		{"", "0", true},
		{"nan", "0", true},
		{"20 EGP", "20", true},
		{"abc", "0", false},
	}
	for _, tt := range tests {
		got, ok := Decimal(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "%s -> %s", tt.in, got)
	}
}

func TestInt(t *testing.T) {
	n, ok := Int("3")
	assert.True(t, ok)
	assert.EqualValues(t, 3, n)

	n, ok = Int("-2")
	assert.True(t, ok)
	assert.EqualValues(t, -2, n)

	_, ok = Int("two")
	assert.False(t, ok)

	n, ok = Int("2.0")
	assert.True(t, ok)
	assert.EqualValues(t, 2, n)

	for _, frac := range []string{"-0.4", "0.5", "2.5"} {
		n, ok = Int(frac)
		assert.False(t, ok, frac)
		assert.Zero(t, n, frac)
	}
}

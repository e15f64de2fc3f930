package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeXLSX(t *testing.T, path, sheetName string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheetName))
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheetName, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestGenerateCommand_SingleBranch(t *testing.T) {
	dir := t.TempDir()
	sales := filepath.Join(dir, "sales.xlsx")
	inventory := filepath.Join(dir, "inventory.xlsx")
	deals := filepath.Join(dir, "deals.xlsx")

	writeXLSX(t, sales, "Sales", [][]interface{}{
		{"Brand", "Product Name", "Barcode", "Quantity", "Total"},
		{"Puma", "Cap", "7", 2, 160},
	})
	writeXLSX(t, inventory, "Stock", [][]interface{}{
		{"Brand", "Product Name", "Barcode", "Unit Price", "Available Quantity"},
		{"Puma", "Cap", "7", 80, 4},
	})
	writeXLSX(t, deals, "Zamalek", [][]interface{}{
		{"Brand Name", "Deal Percentage (%)", "Rent Amount (EGP)"},
		{"puma", 15, 0},
	})

	outDir := filepath.Join(dir, "out") + string(os.PathSeparator)
	err := newApp().Run([]string{"reports", "generate",
		"--mode", "zamalek",
		"--cycle", "2",
		"--sales", sales,
		"--inventory", inventory,
		"--deals", deals,
		"--out", outDir,
		"--workers", "2",
	})
	require.NoError(t, err)

	zr, err := zip.OpenReader(filepath.Join(outDir, "SlotX_Reports_Zamalek_Cycle 2.zip"))
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Reports/Zamalek/Puma.xlsx", "Reports/Zamalek/Zamalek_Summary.xlsx"}, names)
}

func TestGenerateCommand_Errors(t *testing.T) {
	dir := t.TempDir()

	err := newApp().Run([]string{"reports", "generate", "--mode", "Heliopolis", "--deals", "x.xlsx"})
	assert.ErrorContains(t, err, "unknown report mode")

	err = newApp().Run([]string{"reports", "generate", "--mode", "Merged", "--deals", filepath.Join(dir, "missing.xlsx")})
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "a.zip"), outputPath(dir, "a.zip"))
	assert.Equal(t, filepath.Join(dir, "custom.zip"), outputPath(filepath.Join(dir, "custom.zip"), "a.zip"))
	assert.Equal(t, "a.zip", outputPath("", "a.zip"))
}

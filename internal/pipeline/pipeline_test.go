package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/slotx-reports/internal/domain"
	"github.com/andresuchdata/slotx-reports/internal/sheet"
)

var fixedNow = time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)

func tbl(source string, header []string, rows ...[]string) *sheet.Table {
	t := &sheet.Table{Source: source, Header: header}
	for i, r := range rows {
		t.Rows = append(t.Rows, sheet.Row{Number: i + 2, Cells: r})
	}
	return t
}

func salesTable(rows ...[]string) *sheet.Table {
	return tbl("sales", []string{"Brand", "Product Name", "Barcode", "Quantity", "Total"}, rows...)
}

func inventoryTable(rows ...[]string) *sheet.Table {
	return tbl("inventory", []string{"Brand", "Product Name", "Barcode", "Unit Price", "Available Quantity"}, rows...)
}

// dealBook serves deal sheets from memory.
type dealBook map[string]sheet.Table

func (b dealBook) Table(name string) (sheet.Table, error) {
	t, ok := b[name]
	if !ok {
		return sheet.Table{}, &domain.SourceError{Source: "deals", Sheet: name}
	}
	return t, nil
}

func dealSheet(name string, rows ...[]string) sheet.Table {
	t := *tbl("deals", []string{"Brand Name", "Deal Percentage (%)", "Rent Amount (EGP)"}, rows...)
	t.Sheet = name
	return t
}

func testGenerator(workers int) *Generator {
	return NewGenerator(Config{WorkerCount: workers, Clock: func() time.Time { return fixedNow }})
}

func unzip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string][]byte)
	for _, f := range zr.File {
		assert.True(t, f.Modified.Equal(fixedNow), f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = body
	}
	return out
}

func names(entries map[string][]byte) []string {
	out := make([]string, 0, len(entries))
	for n := range entries {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func cell(t *testing.T, data []byte, sheetName, axis string) string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(sheetName, axis, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func mergedRequest() Request {
	return Request{
		Mode:  domain.BranchMerged,
		Cycle: domain.CycleOne,
		Branches: map[domain.Branch]BranchTables{
			domain.BranchAlexandria: {
				Sales: salesTable(
					[]string{"Nike", "Air - 42", "111", "3", "450"},
					[]string{"Zara", "Dress - M", "500", "1", "300"},
					[]string{"Zara", "Dress - M", "500", "-1", "-300"},
				),
				Inventory: inventoryTable(
					[]string{"Nike", "Air - 42", "111", "50", "10"},
					[]string{"Zara", "Dress - M", "500", "300", "2"},
					[]string{"Ghost", "Nothing", "999", "10", "0"},
				),
			},
			domain.BranchZamalek: {
				Sales: salesTable(
					[]string{"zara", "Dress - M", "500", "2", "600"},
				),
				Inventory: inventoryTable(
					[]string{"NIKE", "Air - 42", "111", "50", "0"},
					[]string{"Zara", "Dress - M", "500", "300", "3"},
				),
			},
		},
		Deals: dealBook{
			"Merged":     dealSheet("Merged", []string{"Nike", "10", "20"}),
			"Alexandria": dealSheet("Alexandria", []string{"Adidas", "5", "0"}),
		},
	}
}

func TestGenerate_MergedEndToEnd(t *testing.T) {
	res, err := testGenerator(1).Generate(context.Background(), mergedRequest())
	require.NoError(t, err)

	assert.Equal(t, "SlotX_Reports_Merged_Cycle 1.zip", res.FileName)
	entries := unzip(t, res.Archive)
	assert.Equal(t, []string{
		"Reports/Alexandria/Nike.xlsx",
		"Reports/Merged/No Deal/Zara.xlsx",
	}, names(entries))

	nike := entries["Reports/Alexandria/Nike.xlsx"]
	assert.Equal(t, "Alexandria", cell(t, nike, "Sales", "A2"))
	assert.Equal(t, "450", cell(t, nike, "Sales", "F3"))
	assert.Equal(t, "500", cell(t, nike, "Report", "D12"))
	assert.Equal(t, "405", cell(t, nike, "Report", "D9"))
	assert.Equal(t, "385", cell(t, nike, "Report", "D10"))
	assert.Equal(t, "10% + 20 EGP Deducted from the sales", cell(t, nike, "Report", "D6"))

	zara := entries["Reports/Merged/No Deal/Zara.xlsx"]
	assert.Equal(t, "Alex Qty", cell(t, zara, "Inventory", "F1"))
	assert.Equal(t, "5", cell(t, zara, "Inventory", "H2"))
	// The Alexandria refund cancelled its sale; only Zamalek's remains.
	assert.Equal(t, "Zamalek", cell(t, zara, "Sales", "A2"))
	assert.Equal(t, "600", cell(t, zara, "Sales", "F3"))

	d := res.Diagnostics
	assert.Equal(t, 1, d.Refunds.Matched)
	assert.Equal(t, 1, d.DealSheetFallbacks)
	assert.Equal(t, map[string]int{"Report": 1, "No Deal": 1, "Skip": 1}, d.Classifications)
	assert.Equal(t, 2, d.Entries)
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := testGenerator(1).Generate(context.Background(), mergedRequest())
	require.NoError(t, err)
	b, err := testGenerator(4).Generate(context.Background(), mergedRequest())
	require.NoError(t, err)

	assert.Equal(t, a.Entries, b.Entries)
	ea, eb := unzip(t, a.Archive), unzip(t, b.Archive)
	assert.Equal(t, names(ea), names(eb))
}

func TestGenerate_SingleBranchWithSummary(t *testing.T) {
	req := Request{
		Mode:  domain.BranchZamalek,
		Cycle: domain.CycleTwo,
		Branches: map[domain.Branch]BranchTables{
			domain.BranchZamalek: {
				Sales: salesTable(
					[]string{"A/B", "Tee - L", "1", "2", "200"},
					[]string{"A\\B", "Tee - L", "1", "1", "100"},
					[]string{"Puma", "Cap", "7", "1", "80"},
				),
				Inventory: inventoryTable(
					[]string{"Stocked", "Sock", "9", "10", "6"},
				),
			},
		},
		Deals: dealBook{
			"Zamalek": dealSheet("Zamalek", []string{"a-b", "10", "0"}, []string{"Stocked", "5", "0"}),
		},
	}

	res, err := testGenerator(2).Generate(context.Background(), req)
	require.NoError(t, err)

	entries := unzip(t, res.Archive)
	assert.Equal(t, []string{
		"Reports/Zamalek/A-B.xlsx",
		"Reports/Zamalek/No Deal/Puma.xlsx",
		"Reports/Zamalek/Stocked.xlsx",
		"Reports/Zamalek/Zamalek_Summary.xlsx",
	}, names(entries))

	// Both spellings resolve to one brand.
	assert.Equal(t, "300", cell(t, entries["Reports/Zamalek/A-B.xlsx"], "Sales", "F4"))

	summary := entries["Reports/Zamalek/Zamalek_Summary.xlsx"]
	assert.Equal(t, "A/B", cell(t, summary, "Performance", "B6"))
	assert.Equal(t, "Puma", cell(t, summary, "Performance", "B7"))
	assert.Equal(t, "", cell(t, summary, "Performance", "B8"))
	assert.Equal(t, "Zamalek Summary", cell(t, summary, "Metadata", "B3"))
	assert.Equal(t, "Cycle 2", cell(t, summary, "Metadata", "B4"))
}

func TestGenerate_EmptyBrandGuard(t *testing.T) {
	req := Request{
		Mode:  domain.BranchAlexandria,
		Cycle: domain.CycleOne,
		Branches: map[domain.Branch]BranchTables{
			domain.BranchAlexandria: {
				Sales:     salesTable(),
				Inventory: inventoryTable([]string{"Idle", "Shelf", "4", "10", "5"}),
			},
		},
		Deals: dealBook{"Alexandria": dealSheet("Alexandria")},
	}
	res, err := testGenerator(1).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, res.Entries, "Reports/Alexandria/Empty Brand Guard/Idle.xlsx")
}

func TestGenerate_FatalErrors(t *testing.T) {
	t.Run("missing upload", func(t *testing.T) {
		req := mergedRequest()
		req.Branches[domain.BranchZamalek] = BranchTables{Sales: salesTable()}
		_, err := testGenerator(1).Generate(context.Background(), req)
		var srcErr *domain.SourceError
		require.True(t, errors.As(err, &srcErr))
		assert.Equal(t, "inventory (Zamalek)", srcErr.Source)
	})

	t.Run("missing merged deal sheet", func(t *testing.T) {
		req := mergedRequest()
		req.Deals = dealBook{"Alexandria": dealSheet("Alexandria")}
		_, err := testGenerator(1).Generate(context.Background(), req)
		var srcErr *domain.SourceError
		require.True(t, errors.As(err, &srcErr))
		assert.Equal(t, "Merged", srcErr.Sheet)
	})

	t.Run("unresolvable column", func(t *testing.T) {
		req := mergedRequest()
		req.Branches[domain.BranchAlexandria] = BranchTables{
			Sales:     tbl("sales", []string{"Brand", "Product", "Barcode", "Qty"}),
			Inventory: inventoryTable(),
		}
		_, err := testGenerator(1).Generate(context.Background(), req)
		var schemaErr *domain.SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, "total", schemaErr.Column)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := testGenerator(1).Generate(context.Background(), Request{Mode: "Heliopolis"})
		assert.Error(t, err)
	})
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testGenerator(2).Generate(ctx, mergedRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func ExampleGenerator_Generate() {
	res, err := NewGenerator(Config{Clock: func() time.Time { return fixedNow }}).Generate(context.Background(), mergedRequest())
	if err != nil {
		panic(err)
	}
	for _, e := range res.Entries {
		fmt.Println(e)
	}
	// Output:
	// Reports/Alexandria/Nike.xlsx
	// Reports/Merged/No Deal/Zara.xlsx
}

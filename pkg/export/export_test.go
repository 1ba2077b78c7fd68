package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bukukas/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func fixedExporter(t *testing.T) *Exporter {
	e := New(t.TempDir(), nil)
	e.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local) }
	return e
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	return rows
}

func TestExportEmptyHasOnlyHeader(t *testing.T) {
	e := fixedExporter(t)
	path, err := e.Export(context.Background(), nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Base(path) != "Laporan_Buku_Kas_20240309_140507.xlsx" {
		t.Fatalf("unexpected name %s", filepath.Base(path))
	}
	rows := readRows(t, path)
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
	want := []string{"Tanggal", "Keterangan", "Jenis", "Jumlah (Rp)"}
	for i, w := range want {
		if rows[0][i] != w {
			t.Fatalf("header[%d]=%q want %q", i, rows[0][i], w)
		}
	}
}

func TestExportRowsInOrder(t *testing.T) {
	e := fixedExporter(t)
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	in := []models.Kas{
		{Tanggal: day(1), Keterangan: "iuran", Jenis: models.JenisMasuk, Jumlah: decimal.NewFromInt(100000)},
		{Tanggal: day(2), Keterangan: "konsumsi", Jenis: models.JenisKeluar, Jumlah: decimal.NewFromInt(40000)},
	}
	path, err := e.Export(context.Background(), in)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	rows := readRows(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows got %d", len(rows))
	}
	if rows[1][0] != "2024-01-01" || rows[1][1] != "iuran" || rows[1][2] != "masuk" {
		t.Fatalf("row 1 = %v", rows[1])
	}
	if rows[2][0] != "2024-01-02" || rows[2][2] != "keluar" {
		t.Fatalf("row 2 = %v", rows[2])
	}

	f, _ := excelize.OpenFile(path)
	defer f.Close()
	raw, err := f.GetCellValue(SheetName, "D3", excelize.Options{RawCellValue: true})
	if err != nil || raw != "40000" {
		t.Fatalf("D3 raw=%q err=%v", raw, err)
	}
}

func TestExportSameSecondKeepsEarlierReports(t *testing.T) {
	e := fixedExporter(t)
	one := []models.Kas{{Tanggal: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Keterangan: "iuran", Jenis: models.JenisMasuk, Jumlah: decimal.NewFromInt(1000)}}

	first, err := e.Export(context.Background(), one)
	if err != nil {
		t.Fatalf("first export: %v", err)
	}
	second, err := e.Export(context.Background(), nil)
	if err != nil {
		t.Fatalf("second export: %v", err)
	}
	third, err := e.Export(context.Background(), nil)
	if err != nil {
		t.Fatalf("third export: %v", err)
	}
	if filepath.Base(second) != "Laporan_Buku_Kas_20240309_140507_2.xlsx" || filepath.Base(third) != "Laporan_Buku_Kas_20240309_140507_3.xlsx" {
		t.Fatalf("unexpected names %s, %s", filepath.Base(second), filepath.Base(third))
	}
	if rows := readRows(t, first); len(rows) != 2 {
		t.Fatalf("first report overwritten: %d rows", len(rows))
	}
	entries, err := os.ReadDir(filepath.Dir(first))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(entries))
	}
}

func TestExportCancelled(t *testing.T) {
	e := fixedExporter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Export(ctx, []models.Kas{{Jenis: models.JenisMasuk}}); err == nil {
		t.Fatalf("expected context error")
	}
}

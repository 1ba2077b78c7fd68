// Package export writes the ledger to an Excel workbook.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bukukas/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName  = "Buku Kas"
	filePrefix = "Laporan_Buku_Kas_"
	stampFmt   = "20060102_150405"
)

// Header is the first row of every report.
var Header = []any{"Tanggal", "Keterangan", "Jenis", "Jumlah (Rp)"}

// maxNameAttempts bounds the "_2", "_3", ... suffixes tried for one timestamp.
const maxNameAttempts = 1000

type Exporter struct {
	dir string
	now func() time.Time
	log *slog.Logger
}

func New(dir string, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{dir: dir, now: time.Now, log: log}
}

// Export writes rows (in the given order) to a new workbook under the
// reports directory and returns its path.
func (e *Exporter) Export(ctx context.Context, rows []models.Kas) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir %s: %w", e.dir, err)
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return "", fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("header style: %w", err)
	}
	// 3 is the built-in "#,##0" format.
	amount, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return "", fmt.Errorf("amount style: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &Header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "D1", bold); err != nil {
		return "", fmt.Errorf("style header: %w", err)
	}
	for i, r := range rows {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return "", err
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		jumlah, _ := r.Jumlah.Float64()
		values := []any{r.Tanggal.Format("2006-01-02"), r.Keterangan, r.Jenis, jumlah}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return "", fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if len(rows) > 0 {
		last := fmt.Sprintf("D%d", len(rows)+1)
		if err := f.SetCellStyle(SheetName, "D2", last, amount); err != nil {
			return "", fmt.Errorf("style amounts: %w", err)
		}
	}
	_ = f.SetColWidth(SheetName, "A", "A", 12)
	_ = f.SetColWidth(SheetName, "B", "B", 40)
	_ = f.SetColWidth(SheetName, "D", "D", 16)

	out, path, err := e.create()
	if err != nil {
		return "", err
	}
	if err := f.Write(out); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	e.log.Info("report exported", "path", path, "rows", len(rows))
	return path, nil
}

// create reserves a report file named after the current second. Later
// exports within the same second get a numeric suffix instead of replacing it.
func (e *Exporter) create() (*os.File, string, error) {
	base := filepath.Join(e.dir, filePrefix+e.now().Format(stampFmt))
	for n := 1; n <= maxNameAttempts; n++ {
		path := base + ".xlsx"
		if n > 1 {
			path = fmt.Sprintf("%s_%d.xlsx", base, n)
		}
		out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return out, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("create %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("create report: %d files already exist for %s", maxNameAttempts, base)
}

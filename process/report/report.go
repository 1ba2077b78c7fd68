// Package report prints month-bounded ledger totals for the command line.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"bukukas/models"
	"bukukas/pkg/ledger"
	"bukukas/pkg/rupiah"

	"gorm.io/gorm"
)

type Month struct {
	Month   string
	Start   time.Time
	End     time.Time
	Rows    []models.Kas
	Summary ledger.Summary
}

// Monthly loads the entries dated within month (YYYY-MM) and their totals.
func Monthly(ctx context.Context, db *gorm.DB, month string) (Month, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month format, expected YYYY-MM: %w", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var rows []models.Kas
	err = db.WithContext(ctx).Preload("Member").
		Where("tanggal >= ? AND tanggal < ?", start, end).
		Order("tanggal ASC, id ASC").Find(&rows).Error
	if err != nil {
		return Month{}, fmt.Errorf("fetch rows: %w", err)
	}
	return Month{Month: month, Start: start, End: end, Rows: rows, Summary: ledger.Summarize(rows)}, nil
}

// RunReport writes the report for month to w, listing every row when list is set.
func RunReport(ctx context.Context, db *gorm.DB, month string, list bool, w io.Writer) error {
	m, err := Monthly(ctx, db, month)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Report for month=%s\n", m.Month)
	fmt.Fprintf(w, "  records=%d masuk=%s keluar=%s saldo=%s\n", len(m.Rows),
		rupiah.Format(m.Summary.Masuk), rupiah.Format(m.Summary.Keluar), rupiah.Format(m.Summary.Saldo))
	if list {
		for _, r := range m.Rows {
			fmt.Fprintf(w, "%d|%s|%s|%s|%s|%s\n", r.ID, r.Tanggal.Format("2006-01-02"), r.Jenis,
				r.Jumlah.StringFixed(2), r.Keterangan, r.MemberName())
		}
	}
	return nil
}

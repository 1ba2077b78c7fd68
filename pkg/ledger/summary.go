package ledger

import (
	"bukukas/models"

	"github.com/shopspring/decimal"
)

// Summary holds the dashboard totals.
type Summary struct {
	Masuk  decimal.Decimal
	Keluar decimal.Decimal
	Saldo  decimal.Decimal
}

// Summarize computes totals from rows: saldo = sum(masuk) - sum(keluar).
// Rows with an unknown jenis are ignored.
func Summarize(rows []models.Kas) Summary {
	s := Summary{Masuk: decimal.Zero, Keluar: decimal.Zero, Saldo: decimal.Zero}
	for _, r := range rows {
		switch r.Jenis {
		case models.JenisMasuk:
			s.Masuk = s.Masuk.Add(r.Jumlah)
		case models.JenisKeluar:
			s.Keluar = s.Keluar.Add(r.Jumlah)
		default:
			continue
		}
		s.Saldo = s.Saldo.Add(r.Signed())
	}
	return s
}

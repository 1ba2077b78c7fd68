package ledger

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"bukukas/models"
	"bukukas/pkg/apperr"
	"bukukas/pkg/rupiah"

	"github.com/shopspring/decimal"
)

// DateLayout is the form and export date format.
const DateLayout = "2006-01-02"

// Input is the raw ledger form as submitted.
type Input struct {
	Tanggal    string
	Keterangan string
	Jenis      string
	Jumlah     string
	MemberID   string
}

// Entry is a validated ledger entry.
type Entry struct {
	Tanggal    time.Time
	Keterangan string
	Jenis      string
	Jumlah     decimal.Decimal
	MemberID   *uint
}

// ParseJenis normalizes a kind; only masuk and keluar are recognised.
func ParseJenis(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case models.JenisMasuk:
		return models.JenisMasuk, true
	case models.JenisKeluar:
		return models.JenisKeluar, true
	}
	return "", false
}

// Parse validates every field and reports all problems at once.
func (in Input) Parse() (Entry, error) {
	var e Entry
	v := apperr.ValidationErrors{}

	if t, err := time.Parse(DateLayout, strings.TrimSpace(in.Tanggal)); err != nil {
		v.Add("tanggal", "Tanggal harus berformat YYYY-MM-DD.")
	} else {
		e.Tanggal = t
	}

	e.Keterangan = strings.TrimSpace(in.Keterangan)
	if e.Keterangan == "" {
		v.Add("keterangan", "Keterangan wajib diisi.")
	} else if utf8.RuneCountInString(e.Keterangan) > 255 {
		v.Add("keterangan", "Keterangan maksimal 255 karakter.")
	}

	if j, ok := ParseJenis(in.Jenis); ok {
		e.Jenis = j
	} else {
		v.Add("jenis", "Jenis harus 'masuk' atau 'keluar'.")
	}

	amt, err := rupiah.Parse(in.Jumlah)
	switch {
	case errors.Is(err, rupiah.ErrNegativeAmount):
		v.Add("jumlah", "Jumlah tidak boleh negatif.")
	case err != nil:
		v.Add("jumlah", "Jumlah harus berupa angka.")
	case !amt.IsPositive():
		v.Add("jumlah", "Jumlah harus lebih dari nol.")
	case amt.GreaterThanOrEqual(maxJumlah):
		v.Add("jumlah", "Jumlah terlalu besar.")
	default:
		e.Jumlah = amt
	}

	if s := strings.TrimSpace(in.MemberID); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			v.Add("member_id", "Anggota tidak valid.")
		} else {
			mid := uint(id)
			e.MemberID = &mid
		}
	}

	if err := v.Err(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// maxJumlah is the first value that no longer fits decimal(15,2).
var maxJumlah = decimal.New(1, 13)

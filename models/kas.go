package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger entry kinds stored in kas.jenis.
const (
	JenisMasuk  = "masuk"
	JenisKeluar = "keluar"
)

// Kas is one cash-box ledger entry.
type Kas struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Tanggal    time.Time       `gorm:"type:date;not null;index"`
	Keterangan string          `gorm:"size:255;not null"`
	Jenis      string          `gorm:"size:16;not null;index"`
	Jumlah     decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	// BuktiFile is the storage key of the proof attachment under the uploads dir.
	BuktiFile *string `gorm:"size:255"`
	MemberID  *uint   `gorm:"index"`
	Member    *Member `gorm:"foreignKey:MemberID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

// TableName keeps the historical table name.
func (Kas) TableName() string { return "kas" }

// Signed returns the amount with the sign implied by Jenis.
func (k Kas) Signed() decimal.Decimal {
	if k.Jenis == JenisKeluar {
		return k.Jumlah.Neg()
	}
	return k.Jumlah
}

// MemberName returns the attributed member's name, or "" when none is linked.
func (k Kas) MemberName() string {
	if k.Member == nil {
		return ""
	}
	return k.Member.Nama
}

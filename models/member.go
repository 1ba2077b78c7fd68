package models

import "time"

// Member is a treasury member that ledger entries may be attributed to.
type Member struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Nama      string `gorm:"size:255;not null"`
	Kontak    string `gorm:"size:64"`
	Alamat    string `gorm:"size:512"`
}

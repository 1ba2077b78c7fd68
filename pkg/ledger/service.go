// Package ledger implements the cash-box ledger: listing, balance and entry maintenance.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"time"

	"bukukas/models"
	"bukukas/pkg/apperr"
	"bukukas/pkg/attachment"
	"bukukas/pkg/config"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Attachments stores and removes proof files.
type Attachments interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(key string) error
}

// MemberChecker confirms a member id exists.
type MemberChecker interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

type Options struct {
	Timeout      time.Duration
	Attachments  Attachments
	Members      MemberChecker
	RejectPolicy string
	Logger       *slog.Logger
}

type Service struct {
	db           *gorm.DB
	timeout      time.Duration
	attachments  Attachments
	members      MemberChecker
	rejectPolicy string
	log          *slog.Logger
}

func NewService(db *gorm.DB, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RejectPolicy == "" {
		opts.RejectPolicy = config.RejectDrop
	}
	return &Service{
		db:           db,
		timeout:      opts.Timeout,
		attachments:  opts.Attachments,
		members:      opts.Members,
		rejectPolicy: opts.RejectPolicy,
		log:          opts.Logger,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// List returns entries with their member, newest date first.
func (s *Service) List(ctx context.Context) ([]models.Kas, error) {
	return s.list(ctx, "tanggal desc, id desc")
}

// ListAscending returns entries oldest date first, as exported.
func (s *Service) ListAscending(ctx context.Context) ([]models.Kas, error) {
	return s.list(ctx, "tanggal asc, id asc")
}

func (s *Service) list(ctx context.Context, order string) ([]models.Kas, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var rows []models.Kas
	if err := s.db.WithContext(ctx).Preload("Member").Order(order).Find(&rows).Error; err != nil {
		return nil, apperr.Storage("list kas", err)
	}
	return rows, nil
}

// Balance sums the table in SQL. An empty table yields zeros.
func (s *Service) Balance(ctx context.Context) (Summary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var totals struct {
		Masuk  decimal.Decimal
		Keluar decimal.Decimal
	}
	err := s.db.WithContext(ctx).Model(&models.Kas{}).
		Select("COALESCE(SUM(CASE WHEN jenis = ? THEN jumlah ELSE 0 END), 0) AS masuk, "+
			"COALESCE(SUM(CASE WHEN jenis = ? THEN jumlah ELSE 0 END), 0) AS keluar",
			models.JenisMasuk, models.JenisKeluar).
		Scan(&totals).Error
	if err != nil {
		return Summary{}, apperr.Storage("sum kas", err)
	}
	return Summary{Masuk: totals.Masuk, Keluar: totals.Keluar, Saldo: totals.Masuk.Sub(totals.Keluar)}, nil
}

// CreateResult reports the stored entry and whether an uploaded file was dropped.
type CreateResult struct {
	Entry             models.Kas
	AttachmentDropped bool
}

// Create validates in, stores the attachment (if any) and inserts the entry.
// A failed insert removes the just-written file.
func (s *Service) Create(ctx context.Context, in Input, fh *multipart.FileHeader) (CreateResult, error) {
	e, err := in.Parse()
	if err != nil {
		return CreateResult{}, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if e.MemberID != nil && s.members != nil {
		ok, err := s.members.Exists(ctx, *e.MemberID)
		if err != nil {
			return CreateResult{}, err
		}
		if !ok {
			return CreateResult{}, apperr.Validation("member_id", "Anggota tidak ditemukan.")
		}
	}

	var res CreateResult
	var key *string
	if fh != nil && fh.Filename != "" && s.attachments != nil {
		k, err := s.attachments.Save(fh)
		switch {
		case errors.Is(err, attachment.ErrRejected), errors.Is(err, attachment.ErrTooLarge):
			if s.rejectPolicy == config.RejectError {
				return CreateResult{}, apperr.Validation("bukti_file", "Bukti harus berupa png, jpg, jpeg atau pdf dan tidak melebihi batas ukuran.")
			}
			s.log.Info("attachment dropped", "filename", fh.Filename, "reason", err.Error())
			res.AttachmentDropped = true
		case err != nil:
			return CreateResult{}, apperr.Storage("save attachment", err)
		default:
			key = &k
		}
	}

	row := models.Kas{
		Tanggal:    e.Tanggal,
		Keterangan: e.Keterangan,
		Jenis:      e.Jenis,
		Jumlah:     e.Jumlah,
		BuktiFile:  key,
		MemberID:   e.MemberID,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if key != nil {
			if rerr := s.attachments.Remove(*key); rerr != nil {
				s.log.Error("failed to remove attachment after insert failure", "key", *key, "error", rerr)
			}
		}
		return CreateResult{}, apperr.Storage("insert kas", err)
	}
	res.Entry = row
	return res, nil
}

func (s *Service) Get(ctx context.Context, id uint) (models.Kas, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var row models.Kas
	if err := s.db.WithContext(ctx).Preload("Member").First(&row, id).Error; err != nil {
		return models.Kas{}, apperr.DB("get kas", "kas", err)
	}
	return row, nil
}

// Update replaces tanggal, keterangan, jenis and jumlah. The attachment and member link are kept.
func (s *Service) Update(ctx context.Context, id uint, in Input) error {
	in.MemberID = ""
	e, err := in.Parse()
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res := s.db.WithContext(ctx).Model(&models.Kas{}).Where("id = ?", id).Updates(map[string]any{
		"tanggal":    e.Tanggal,
		"keterangan": e.Keterangan,
		"jenis":      e.Jenis,
		"jumlah":     e.Jumlah,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return apperr.Storage("update kas", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("kas")
	}
	return nil
}

// Delete removes the entry and then its stored attachment.
func (s *Service) Delete(ctx context.Context, id uint) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var row models.Kas
	if err := s.db.WithContext(ctx).Select("id", "bukti_file").First(&row, id).Error; err != nil {
		return apperr.DB("get kas", "kas", err)
	}
	res := s.db.WithContext(ctx).Delete(&models.Kas{}, id)
	if res.Error != nil {
		return apperr.Storage("delete kas", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("kas")
	}
	if row.BuktiFile != nil && *row.BuktiFile != "" && s.attachments != nil {
		if err := s.attachments.Remove(*row.BuktiFile); err != nil {
			s.log.Warn("failed to remove attachment of deleted kas", "id", id, "key", *row.BuktiFile, "error", err)
		}
	}
	return nil
}

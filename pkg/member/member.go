// Package member manages the members that ledger entries can be attributed to.
package member

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"bukukas/models"
	"bukukas/pkg/apperr"
	"bukukas/pkg/config"

	"gorm.io/gorm"
)

// Input is the raw member form.
type Input struct {
	Nama   string
	Kontak string
	Alamat string
}

// Validate trims fields and checks lengths.
func (in Input) Validate() (Input, error) {
	out := Input{
		Nama:   strings.TrimSpace(in.Nama),
		Kontak: strings.TrimSpace(in.Kontak),
		Alamat: strings.TrimSpace(in.Alamat),
	}
	v := apperr.ValidationErrors{}
	if out.Nama == "" {
		v.Add("nama", "Nama wajib diisi.")
	} else if utf8.RuneCountInString(out.Nama) > 255 {
		v.Add("nama", "Nama maksimal 255 karakter.")
	}
	if utf8.RuneCountInString(out.Kontak) > 64 {
		v.Add("kontak", "Kontak maksimal 64 karakter.")
	}
	if utf8.RuneCountInString(out.Alamat) > 512 {
		v.Add("alamat", "Alamat maksimal 512 karakter.")
	}
	return out, v.Err()
}

// AttachmentRemover deletes stored proof files; used by the cascade policy.
type AttachmentRemover interface {
	Remove(key string) error
}

type Store struct {
	db          *gorm.DB
	timeout     time.Duration
	policy      string
	attachments AttachmentRemover
	log         *slog.Logger
}

// NewStore builds a member store. policy is one of config.DeleteNullify, DeleteBlock, DeleteCascade.
func NewStore(db *gorm.DB, timeout time.Duration, policy string, attachments AttachmentRemover, log *slog.Logger) *Store {
	if policy == "" {
		policy = config.DeleteNullify
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, timeout: timeout, policy: policy, attachments: attachments, log: log}
}

// Policy returns the configured delete policy.
func (s *Store) Policy() string { return s.policy }

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// List returns members, most recent first.
func (s *Store) List(ctx context.Context) ([]models.Member, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var out []models.Member
	if err := s.db.WithContext(ctx).Order("id desc").Find(&out).Error; err != nil {
		return nil, apperr.Storage("list members", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id uint) (models.Member, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var m models.Member
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return models.Member{}, apperr.DB("get member", "member", err)
	}
	return m, nil
}

// Exists reports whether a member with id exists.
func (s *Store) Exists(ctx context.Context, id uint) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Member{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, apperr.Storage("count member", err)
	}
	return n > 0, nil
}

func (s *Store) Create(ctx context.Context, in Input) (models.Member, error) {
	in, err := in.Validate()
	if err != nil {
		return models.Member{}, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	m := models.Member{Nama: in.Nama, Kontak: in.Kontak, Alamat: in.Alamat}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return models.Member{}, apperr.Storage("create member", err)
	}
	return m, nil
}

// Update replaces nama, kontak and alamat.
func (s *Store) Update(ctx context.Context, id uint, in Input) error {
	in, err := in.Validate()
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res := s.db.WithContext(ctx).Model(&models.Member{}).Where("id = ?", id).
		Updates(map[string]any{"nama": in.Nama, "kontak": in.Kontak, "alamat": in.Alamat, "updated_at": time.Now()})
	if res.Error != nil {
		return apperr.Storage("update member", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("member")
	}
	return nil
}

// Delete removes a member, applying the configured policy to ledger entries that reference it.
// It returns the number of ledger entries affected.
func (s *Store) Delete(ctx context.Context, id uint) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var affected int64
	var orphanKeys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Member
		if err := tx.First(&m, id).Error; err != nil {
			return apperr.DB("get member", "member", err)
		}
		var refs []models.Kas
		if err := tx.Select("id", "bukti_file").Where("member_id = ?", id).Find(&refs).Error; err != nil {
			return apperr.Storage("find member entries", err)
		}
		affected = int64(len(refs))

		if affected > 0 {
			switch s.policy {
			case config.DeleteBlock:
				return apperr.Conflict(fmt.Sprintf("Anggota %s masih dipakai oleh %d transaksi kas.", m.Nama, affected))
			case config.DeleteCascade:
				if err := tx.Where("member_id = ?", id).Delete(&models.Kas{}).Error; err != nil {
					return apperr.Storage("delete member entries", err)
				}
				for _, k := range refs {
					if k.BuktiFile != nil && *k.BuktiFile != "" {
						orphanKeys = append(orphanKeys, *k.BuktiFile)
					}
				}
			default:
				if err := tx.Model(&models.Kas{}).Where("member_id = ?", id).Update("member_id", nil).Error; err != nil {
					return apperr.Storage("unlink member entries", err)
				}
			}
		}
		if err := tx.Delete(&models.Member{}, id).Error; err != nil {
			return apperr.Storage("delete member", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	// files go only after the rows are committed
	if s.attachments != nil {
		for _, key := range orphanKeys {
			if err := s.attachments.Remove(key); err != nil {
				s.log.Warn("failed to remove attachment of deleted entry", "key", key, "error", err)
			}
		}
	}
	s.log.Info("member deleted", "id", id, "policy", s.policy, "entries", affected)
	return affected, nil
}

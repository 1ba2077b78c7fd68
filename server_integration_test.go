package main

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bukukas/models"
	"bukukas/pkg/config"
	"bukukas/pkg/database"
	"bukukas/pkg/logging"
	"bukukas/pkg/session"

	"github.com/gin-gonic/gin"
)

func setupPostgresServer(t *testing.T) (*gin.Engine, *server) {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN (or DB_HOST etc.) to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	cfg := config.FromEnv()
	cfg.DB.Driver = "postgres"
	cfg.DB.AutoMigrate = true
	cfg.UploadDir = filepath.Join(t.TempDir(), "uploads")
	cfg.ReportsDir = filepath.Join(t.TempDir(), "laporan")
	log := logging.NewWithWriter(io.Discard, "error", "text")

	db, err := initDB(cfg, log)
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() {
		db.Where("keterangan LIKE ?", "integration-%").Delete(&models.Kas{})
		_ = database.Close(db)
	})
	srv, err := newServer(cfg, db, session.NewMemoryStore(), log)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv.router(), srv
}

func TestPostgresFullFlow(t *testing.T) {
	r, srv := setupPostgresServer(t)
	cl := &client{t: t, h: r, cookies: map[string]*http.Cookie{}}
	cl.login("admin", srv.cfg.SeedAdminPassword)

	before, err := srv.ledger.Balance(context.Background())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	rec := cl.postForm("/tambah", url.Values{
		"tanggal": {"2024-01-01"}, "keterangan": {"integration-iuran"}, "jenis": {"masuk"}, "jumlah": {"1.250,50"},
	})
	if rec.Code != http.StatusFound {
		t.Fatalf("tambah status=%d body=%s", rec.Code, rec.Body.String())
	}
	after, err := srv.ledger.Balance(context.Background())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if got := after.Saldo.Sub(before.Saldo).String(); got != "1250.5" {
		t.Fatalf("saldo delta=%s", got)
	}
	if rec := cl.get("/export_excel"); rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Disposition"), ".xlsx") {
		t.Fatalf("export status=%d", rec.Code)
	}
}

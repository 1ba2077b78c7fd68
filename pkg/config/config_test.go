package config

import (
	"strings"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("DB_DSN", "postgres://kas:pw@db:5432/kas")
	cfg := FromEnv()
	if cfg.Port != "5000" {
		t.Fatalf("port=%s", cfg.Port)
	}
	if !cfg.UsingDevSecret() {
		t.Fatalf("expected dev secret fallback")
	}
	if !cfg.UsingDefaultAdminPassword() {
		t.Fatalf("expected default admin password to be flagged")
	}
	if cfg.MemberDeletePolicy != DeleteNullify || cfg.AttachmentRejectPolicy != RejectDrop {
		t.Fatalf("policies=%s/%s", cfg.MemberDeletePolicy, cfg.AttachmentRejectPolicy)
	}
	if cfg.MembersRequireAdmin {
		t.Fatalf("member routes should default to session-only")
	}
	if cfg.DB.QueryTimeout != 5*time.Second {
		t.Fatalf("timeout=%v", cfg.DB.QueryTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_DSN", "/tmp/kas.db")
	t.Setenv("DB_QUERY_TIMEOUT", "2s")
	t.Setenv("MEMBERS_REQUIRE_ADMIN", "yes")
	t.Setenv("MEMBER_DELETE_POLICY", "Block")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("SESSION_SECRET", "0123456789abcdef-secret")
	cfg := FromEnv()
	if cfg.Port != "8081" || cfg.DB.Driver != "sqlite" || cfg.DB.QueryTimeout != 2*time.Second {
		t.Fatalf("unexpected cfg %+v", cfg.DB)
	}
	if !cfg.MembersRequireAdmin || cfg.MemberDeletePolicy != DeleteBlock || cfg.MaxUploadBytes != 1024 {
		t.Fatalf("unexpected cfg %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := FromEnv()
	cfg.Port = "99999"
	cfg.DB.Driver = "mysql"
	cfg.SessionStore = "memcached"
	cfg.MemberDeletePolicy = "ignore"
	cfg.AttachmentRejectPolicy = "panic"
	cfg.SessionSecret = "short"
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"port", "DB_DRIVER", "SESSION_STORE", "MEMBER_DELETE_POLICY", "ATTACHMENT_REJECT_POLICY", "SESSION_SECRET"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error missing %q: %v", want, err)
		}
	}
}

func TestValidateSeedAdminPassword(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://kas:pw@db:5432/kas")
	t.Setenv("SEED_ADMIN_PASSWORD", "")
	cfg := FromEnv()
	if cfg.UsingDefaultAdminPassword() {
		t.Fatalf("explicit empty password reported as default")
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SEED_ADMIN_PASSWORD") {
		t.Fatalf("empty seed password accepted: %v", err)
	}

	t.Setenv("SEED_ADMIN_PASSWORD", "kas-rahasia")
	cfg = FromEnv()
	if cfg.UsingDefaultAdminPassword() {
		t.Fatalf("custom password reported as default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestPostgresDSN(t *testing.T) {
	d := DBConfig{Host: "db", Port: 5433, User: "kas", Password: "pw", Name: "kasdb", SSLMode: "disable"}
	want := "host=db port=5433 user=kas password=pw dbname=kasdb sslmode=disable"
	if got := d.PostgresDSN(); got != want {
		t.Fatalf("got %q", got)
	}
	if strings.Contains(d.Redacted(), "pw") {
		t.Fatalf("password leaked: %s", d.Redacted())
	}
	d.DSN = "postgres://kas:secret@db:5432/kas"
	if d.PostgresDSN() != d.DSN {
		t.Fatalf("explicit DSN should win")
	}
	if strings.Contains(d.Redacted(), "secret") {
		t.Fatalf("password leaked: %s", d.Redacted())
	}
}

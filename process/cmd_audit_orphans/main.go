package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"time"

	"bukukas/pkg/config"
	"bukukas/process/audit"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	cfg := config.Load()
	uploads := flag.String("uploads", cfg.UploadDir, "uploads directory to check")
	flag.Parse()

	if cfg.DB.Driver != "postgres" {
		log.Fatalf("audit_orphans needs DB_DRIVER=postgres, got %q", cfg.DB.Driver)
	}
	db, err := sql.Open("pgx", cfg.DB.PostgresDSN())
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	rep, err := audit.Run(ctx, db, *uploads)
	if err != nil {
		log.Fatalf("audit: %v", err)
	}
	audit.Print(os.Stdout, rep)
	if !rep.Clean() {
		os.Exit(1)
	}
}

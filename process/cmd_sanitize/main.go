package main

import (
	"context"
	"flag"
	"log"
	"os"

	"bukukas/pkg/config"
	"bukukas/pkg/database"
	"bukukas/process/sanitize"
)

func main() {
	var (
		dryRun = flag.Bool("dry-run", true, "Don't perform destructive actions; show what would be done")
		yes    = flag.Bool("yes", false, "Confirm destructive action (required to actually truncate)")
		reseed = flag.Bool("reseed", false, "After truncation, reseed master roles and the admin user")
		tables = flag.String("tables", sanitize.DefaultTables, "Comma-separated list of tables to truncate")
	)
	flag.Parse()

	cfg := config.Load()
	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close(db)

	opts := sanitize.Options{
		Tables:        *tables,
		DryRun:        *dryRun,
		Yes:           *yes,
		Reseed:        *reseed,
		AdminPassword: cfg.SeedAdminPassword,
	}
	if err := sanitize.Run(context.Background(), db, opts, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

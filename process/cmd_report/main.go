package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"bukukas/pkg/config"
	"bukukas/pkg/database"
	"bukukas/process/report"
)

func main() {
	month := flag.String("month", time.Now().Format("2006-01"), "month to report (YYYY-MM)")
	list := flag.Bool("list", false, "list matching rows")
	flag.Parse()

	cfg := config.Load()
	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := report.RunReport(ctx, db, *month, *list, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

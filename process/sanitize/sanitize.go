// Package sanitize empties the application tables, optionally reseeding roles and the admin.
package sanitize

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"bukukas/pkg/database"

	"gorm.io/gorm"
)

// DefaultTables lists the app tables, children first.
const DefaultTables = "kas,members,users,roles"

type Options struct {
	Tables        string
	DryRun        bool
	Yes           bool
	Reseed        bool
	AdminPassword string
}

var nameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Run empties the requested tables. Nothing is changed unless DryRun is false and Yes is set.
func Run(ctx context.Context, gdb *gorm.DB, opts Options, w io.Writer) error {
	wanted := make([]string, 0)
	for _, p := range strings.Split(opts.Tables, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !nameRe.MatchString(p) {
			fmt.Fprintf(w, "warning: skipping invalid table name '%s'\n", p)
			continue
		}
		wanted = append(wanted, p)
	}

	existing := []string{}
	for _, t := range wanted {
		if gdb.Migrator().HasTable(t) {
			existing = append(existing, t)
		} else {
			fmt.Fprintf(w, "info: table %s not found, skipping\n", t)
		}
	}
	if len(existing) == 0 {
		fmt.Fprintln(w, "no requested tables present in the database; nothing to do")
		return nil
	}

	fmt.Fprintln(w, "Tables considered for truncation:")
	for _, t := range existing {
		fmt.Fprintf(w, " - %s\n", t)
	}
	if opts.DryRun {
		fmt.Fprintln(w, "dry-run enabled; no changes will be made. Use --dry-run=false --yes to execute.")
		return nil
	}
	if !opts.Yes {
		fmt.Fprintln(w, "Destructive operation. Pass --yes to confirm execution. Aborting.")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := truncate(gdb.WithContext(ctx), existing); err != nil {
		return fmt.Errorf("truncate failed: %w", err)
	}
	fmt.Fprintln(w, "Truncate completed.")

	if opts.Reseed {
		if err := database.Seed(gdb.WithContext(ctx), opts.AdminPassword); err != nil {
			return fmt.Errorf("reseed failed: %w", err)
		}
		fmt.Fprintln(w, "Reseeded roles and admin user.")
	}
	return nil
}

// truncate uses TRUNCATE on postgres and per-table DELETE elsewhere.
func truncate(gdb *gorm.DB, tables []string) error {
	quoted := make([]string, 0, len(tables))
	for _, t := range tables {
		quoted = append(quoted, fmt.Sprintf("\"%s\"", t))
	}
	if gdb.Dialector.Name() == "postgres" {
		return gdb.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(quoted, ", "))).Error
	}
	return gdb.Transaction(func(tx *gorm.DB) error {
		for _, q := range quoted {
			if err := tx.Exec("DELETE FROM " + q).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

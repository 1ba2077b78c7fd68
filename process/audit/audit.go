// Package audit cross-checks ledger rows, members and the uploads directory.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

type Report struct {
	// kas ids whose member_id points at a missing member
	DanglingMembers []int64
	// kas id -> storage key for rows whose file is missing
	MissingFiles map[int64]string
	// files in the uploads dir no row references
	UnreferencedFiles []string
}

func (r Report) Clean() bool {
	return len(r.DanglingMembers) == 0 && len(r.MissingFiles) == 0 && len(r.UnreferencedFiles) == 0
}

// Run inspects db and uploadsDir. It only reads.
func Run(ctx context.Context, db *sql.DB, uploadsDir string) (Report, error) {
	rep := Report{MissingFiles: map[int64]string{}}

	rows, err := db.QueryContext(ctx, `SELECT k.id FROM kas k
		LEFT JOIN members m ON m.id = k.member_id
		WHERE k.member_id IS NOT NULL AND m.id IS NULL
		ORDER BY k.id`)
	if err != nil {
		return rep, fmt.Errorf("query dangling members: %w", err)
	}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return rep, err
		}
		rep.DanglingMembers = append(rep.DanglingMembers, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return rep, err
	}

	referenced := map[string]bool{}
	rows, err = db.QueryContext(ctx, `SELECT id, bukti_file FROM kas WHERE bukti_file IS NOT NULL AND bukti_file <> '' ORDER BY id`)
	if err != nil {
		return rep, fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var key string
		if err := rows.Scan(&id, &key); err != nil {
			return rep, err
		}
		referenced[key] = true
		if _, err := os.Stat(filepath.Join(uploadsDir, filepath.Base(key))); errors.Is(err, os.ErrNotExist) {
			rep.MissingFiles[id] = key
		}
	}
	if err := rows.Err(); err != nil {
		return rep, err
	}

	entries, err := os.ReadDir(uploadsDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return rep, fmt.Errorf("read uploads dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || referenced[e.Name()] {
			continue
		}
		rep.UnreferencedFiles = append(rep.UnreferencedFiles, e.Name())
	}
	sort.Strings(rep.UnreferencedFiles)
	return rep, nil
}

// Print writes a human-readable summary of rep.
func Print(w io.Writer, rep Report) {
	fmt.Fprintf(w, "kas rows with a deleted member: %d\n", len(rep.DanglingMembers))
	for _, id := range rep.DanglingMembers {
		fmt.Fprintf(w, "  kas id=%d\n", id)
	}
	ids := make([]int64, 0, len(rep.MissingFiles))
	for id := range rep.MissingFiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fmt.Fprintf(w, "kas rows with a missing attachment: %d\n", len(ids))
	for _, id := range ids {
		fmt.Fprintf(w, "  kas id=%d file=%s\n", id, rep.MissingFiles[id])
	}
	fmt.Fprintf(w, "unreferenced upload files: %d\n", len(rep.UnreferencedFiles))
	for _, f := range rep.UnreferencedFiles {
		fmt.Fprintf(w, "  %s\n", f)
	}
}

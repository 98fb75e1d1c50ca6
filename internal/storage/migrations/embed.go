// Package migrations applies the embedded SQL schema of both backends.
// Files run in lexical order and must be idempotent (IF NOT EXISTS).
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// PostgresFS holds the runs, trade_ledger and threshold_stats schema.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the price_bars and equity_curve schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS

// file is one migration script.
type file struct {
	name string
	sql  string
}

// load returns the non-empty .sql files of dir sorted by name.
func load(fsys fs.FS, dir string) ([]file, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var files []file
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		data, err := fs.ReadFile(fsys, dir+"/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		files = append(files, file{name: e.Name(), sql: string(data)})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}

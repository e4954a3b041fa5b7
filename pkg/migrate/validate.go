package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

const (
	annotationUp         = "-- +goose Up"
	annotationDown       = "-- +goose Down"
	annotationStmtBegin  = "-- +goose StatementBegin"
	annotationStmtEnd    = "-- +goose StatementEnd"
	annotationNoTxPrefix = "-- +goose NO TRANSACTION"
)

// MigrationFile is one goose SQL migration on disk.
type MigrationFile struct {
	Version       int64
	Name          string
	Path          string
	NoTransaction bool
}

// ScanDir lists the SQL migrations in dir ordered by version. It fails on
// anything goose would reject or silently misapply: bad filenames,
// duplicate versions, a missing or misordered Up/Down pair, and unbalanced
// statement blocks.
func ScanDir(dir string) ([]MigrationFile, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	files := make([]MigrationFile, 0, len(entries))
	byVersion := map[int64]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", e.Name())
		}
		version, err := ParseVersion(m[1])
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", e.Name(), err)
		}
		if prev, ok := byVersion[version]; ok {
			return nil, fmt.Errorf("duplicate migration version %d in %q and %q", version, prev, e.Name())
		}
		byVersion[version] = e.Name()

		path := filepath.Join(dir, e.Name())
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", path, err)
		}
		noTx, err := checkAnnotations(string(body))
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", e.Name(), err)
		}
		files = append(files, MigrationFile{Version: version, Name: m[2], Path: path, NoTransaction: noTx})
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no migrations found in %q", dir)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

// ValidateDir reports whether every migration in dir is well formed.
func ValidateDir(dir string) error {
	_, err := ScanDir(dir)
	return err
}

func checkAnnotations(body string) (bool, error) {
	var (
		upLine, downLine int
		inStatement      bool
		noTx             bool
	)
	for i, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		lineNo := i + 1
		switch {
		case line == annotationUp:
			if upLine != 0 {
				return false, fmt.Errorf("duplicate %q on line %d", annotationUp, lineNo)
			}
			upLine = lineNo
		case line == annotationDown:
			if downLine != 0 {
				return false, fmt.Errorf("duplicate %q on line %d", annotationDown, lineNo)
			}
			if inStatement {
				return false, fmt.Errorf("%q on line %d inside an open statement block", annotationDown, lineNo)
			}
			downLine = lineNo
		case line == annotationStmtBegin:
			if inStatement {
				return false, fmt.Errorf("nested %q on line %d", annotationStmtBegin, lineNo)
			}
			inStatement = true
		case line == annotationStmtEnd:
			if !inStatement {
				return false, fmt.Errorf("%q on line %d without a matching begin", annotationStmtEnd, lineNo)
			}
			inStatement = false
		case strings.HasPrefix(line, annotationNoTxPrefix):
			noTx = true
		}
	}

	switch {
	case upLine == 0:
		return false, fmt.Errorf("missing %q", annotationUp)
	case downLine == 0:
		return false, fmt.Errorf("missing %q", annotationDown)
	case downLine < upLine:
		return false, fmt.Errorf("%q must come before %q", annotationUp, annotationDown)
	case inStatement:
		return false, fmt.Errorf("unterminated %q", annotationStmtBegin)
	}
	return noTx, nil
}

package database

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql
var migrationsFS embed.FS

// migration is one NNN_name.sql file.
type migration struct {
	version int
	name    string
	sql     string
}

// migrator is the backend-specific half of the migration runner.
type migrator interface {
	ensureVersionTable(ctx context.Context) error
	appliedVersions(ctx context.Context) (map[int]bool, error)
	apply(ctx context.Context, m migration) error
}

// loadMigrations reads and orders the migrations for dialect.
func loadMigrations(dialect string) ([]migration, error) {
	dir := path.Join("sql", dialect)
	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations dir: %w", err)
	}

	var out []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		parts := strings.SplitN(e.Name(), "_", 2)
		if len(parts) < 2 {
			continue
		}
		v, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		body, err := migrationsFS.ReadFile(path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", e.Name(), err)
		}
		out = append(out, migration{version: v, name: e.Name(), sql: string(body)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].version < out[j].version
	})
	return out, nil
}

// runMigrations applies unapplied migrations in order. Safe to run repeatedly.
func runMigrations(ctx context.Context, m migrator, dialect string) error {
	if err := m.ensureVersionTable(ctx); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	migrations, err := loadMigrations(dialect)
	if err != nil {
		return err
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("querying schema_migrations: %w", err)
	}

	for _, mg := range migrations {
		if applied[mg.version] {
			continue
		}
		if err := m.apply(ctx, mg); err != nil {
			return fmt.Errorf("executing migration %s: %w", mg.name, err)
		}
	}
	return nil
}

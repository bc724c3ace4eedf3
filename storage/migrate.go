package storage

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

var ErrNoOpenSession = errors.New("no open session")

//go:embed migrations/*
var migrationsFS embed.FS

func (p *ProviderSQL) Migrate() error {
	migrationsDir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to get embedded migrations directory: %w", err)
	}
	files, err := fs.ReadDir(migrationsDir, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}
	names := make([]string, 0, len(files))
	for _, file := range files {
		if strings.HasSuffix(file.Name(), ".up.sql") {
			names = append(names, file.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if err := p.executeMigration(migrationsDir, name); err != nil {
			return err
		}
		p.logger.Debug("migration applied", "file", name)
	}
	return nil
}

func (p *ProviderSQL) executeMigration(migrationsDir fs.FS, fileName string) error {
	migrationContent, err := fs.ReadFile(migrationsDir, fileName)
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", fileName, err)
	}
	if _, err := p.db.Exec(string(migrationContent)); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", fileName, err)
	}
	return nil
}

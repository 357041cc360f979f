package postgres

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jhoicas/coleccionables-api/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrateUp aplica las migraciones embebidas pendientes.
func MigrateUp(databaseURL string, log *logger.Logger) error {
	m, err := newMigrate(databaseURL)
	if err != nil {
		return err
	}
	defer closeMigrate(m, log)

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("esquema al día, sin migraciones pendientes")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("migration version: %w", err)
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("migraciones aplicadas")
	return nil
}

// MigrateDown revierte todas las migraciones. Solo para tests y entornos locales.
func MigrateDown(databaseURL string, log *logger.Logger) error {
	m, err := newMigrate(databaseURL)
	if err != nil {
		return err
	}
	defer closeMigrate(m, log)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down: %w", err)
	}
	return nil
}

func newMigrate(databaseURL string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, pgx5URL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}

func closeMigrate(m *migrate.Migrate, log *logger.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		log.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("cerrar migrador")
	}
}

// pgx5URL el driver pgx/v5 de golang-migrate se registra con el esquema pgx5://.
func pgx5URL(databaseURL string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}

package postgres

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // драйвер pgx для goose
	"github.com/pressly/goose/v3"

	"github.com/shestoi/yamoney-gateway/migrations"
)

// Migrate накатывает встроенные миграции goose на базу dsn
func Migrate(ctx context.Context, dsn string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

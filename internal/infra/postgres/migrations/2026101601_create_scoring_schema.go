package migrations

import (
	"context"
	_ "embed"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_scoring_schema.sql
var createScoringSchemaSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execScript(ctx, db, createScoringSchemaSQL)
		},
		func(ctx context.Context, db *bun.DB) error {
			return execScript(ctx, db, `
DROP TABLE IF EXISTS student_responses;
DROP TABLE IF EXISTS quiz_attempts;
DROP TABLE IF EXISTS default_answers;
DROP TABLE IF EXISTS answers;
DROP TABLE IF EXISTS questions;
DROP TABLE IF EXISTS quiz_settings;
DROP TABLE IF EXISTS quizzes;
`)
		},
	)
}

// execScript runs the statements of script one at a time.
func execScript(ctx context.Context, db *bun.DB, script string) error {
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

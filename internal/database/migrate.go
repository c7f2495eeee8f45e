package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"quiz-forge/internal/logger"

	"go.uber.org/zap"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

// oracleObjectExists is raised when a table or index name is already in use.
const oracleObjectExists = "ORA-00955"

// Migration is one embedded .up.sql file split into executable statements.
type Migration struct {
	Name       string
	Statements []string
}

// LoadMigrations returns the embedded migrations in file name order.
func LoadMigrations() ([]Migration, error) {
	return loadMigrations(migrationFiles, "migrations")
}

func loadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("could not read migrations directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	migrations := make([]Migration, 0, len(names))
	for _, name := range names {
		content, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("could not read migration file %s: %w", name, err)
		}
		migrations = append(migrations, Migration{Name: name, Statements: splitStatements(string(content))})
	}
	return migrations, nil
}

// splitStatements breaks a script on semicolons. The Oracle driver executes
// one statement per call and rejects a trailing semicolon.
func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		if s := strings.TrimSpace(part); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// RunMigrations applies every embedded migration. Objects that already exist
// are skipped, so running it twice is safe.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	log := logger.Get()

	migrations, err := LoadMigrations()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		for _, stmt := range m.Statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				if strings.Contains(err.Error(), oracleObjectExists) {
					log.Debug("Skipping existing object", zap.String("migration", m.Name))
					continue
				}
				return fmt.Errorf("could not execute migration %s: %w", m.Name, err)
			}
		}
		log.Info("Executed migration", zap.String("migration", m.Name))
	}

	log.Info("Migrations completed successfully", zap.Int("count", len(migrations)))
	return nil
}

// NewMigrateOracleDB opens a plain database/sql handle for migrations.
func NewMigrateOracleDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}

	return db, nil
}

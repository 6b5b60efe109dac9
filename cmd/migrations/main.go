package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	_ "github.com/lib/pq"
	"github.com/vncsmyrnk/tabletop/internal/config"
	"github.com/vncsmyrnk/tabletop/internal/logging"
)

var basePath = filepath.Join(".", "internal", "adapters", "repository", "postgres", "migrations")

func main() {
	if len(os.Args) < 2 {
		logging.Log.Fatal("a migration name is required.")
	}
	migrationName := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		logging.Log.Fatal(err)
	}
	logging.Bootstrap(cfg.Log.Level, cfg.Log.JSON)
	log := logging.Log

	db, err := sql.Open("postgres", cfg.Database.ConnString())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	fileName, err := migrationFilePath(basePath, migrationName)
	if err != nil {
		log.Fatal(err)
	}

	fileContent, err := os.ReadFile(filepath.Join(basePath, fileName))
	if err != nil {
		log.Fatal(err)
	}

	if _, err := db.Exec(string(fileContent)); err != nil {
		log.Fatalf("Failed to execute SQL file: %v", err)
	}

	log.WithField("file", fileName).Info("Migration file executed successfully.")
}

// migrationFilePath finds the first file in basePath named like "*<name>.sql",
// so "up" or "0001_init_schema.up" both select the init migration.
func migrationFilePath(basePath string, migrationName string) (string, error) {
	regex, err := regexp.Compile(fmt.Sprintf(`^.*%s\.sql$`, regexp.QuoteMeta(migrationName)))
	if err != nil {
		return "", fmt.Errorf("invalid migration name %q: %w", migrationName, err)
	}

	files, err := os.ReadDir(basePath)
	if err != nil {
		return "", fmt.Errorf("failed to read migrations dir: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}

		if regex.MatchString(f.Name()) {
			return f.Name(), nil
		}
	}

	return "", fmt.Errorf("migration file %q not found", migrationName)
}

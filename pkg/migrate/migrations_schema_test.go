package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/shipbridge-backend/pkg/migrate"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}

func TestAppConfigsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_app_configs.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS app_configs",
		"store_id INTEGER PRIMARY KEY",
		"data JSONB NOT NULL",
		"CHECK (store_id > 0)",
		"DROP TABLE IF EXISTS app_configs",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestStoreCredentialsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_store_credentials.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS store_credentials",
		"store_id INTEGER PRIMARY KEY",
		"authentication_id TEXT NOT NULL",
		"access_token TEXT NOT NULL",
		"CHECK (authentication_id <> '')",
		"CHECK (access_token <> '')",
		"DROP TABLE IF EXISTS store_credentials",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matches %q", pattern)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

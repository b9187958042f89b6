package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotenvMissingFile(t *testing.T) {
	t.Parallel()

	if err := LoadDotenv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("LoadDotenv() error = %v", err)
	}
}

func TestLoadDotenvSetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# secrets\nDOTENV_TEST_ID=client-1\nexport DOTENV_TEST_QUOTED=\"with spaces\"\n\nnot a pair\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("DOTENV_TEST_ID", "")
	os.Unsetenv("DOTENV_TEST_ID")
	t.Setenv("DOTENV_TEST_QUOTED", "")
	os.Unsetenv("DOTENV_TEST_QUOTED")

	if err := LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv() error = %v", err)
	}
	if got := os.Getenv("DOTENV_TEST_ID"); got != "client-1" {
		t.Fatalf("DOTENV_TEST_ID = %q, want client-1", got)
	}
	if got := os.Getenv("DOTENV_TEST_QUOTED"); got != "with spaces" {
		t.Fatalf("DOTENV_TEST_QUOTED = %q, want with spaces", got)
	}
}

func TestLoadDotenvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DOTENV_TEST_KEEP=file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("DOTENV_TEST_KEEP", "platform")

	if err := LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv() error = %v", err)
	}
	if got := os.Getenv("DOTENV_TEST_KEEP"); got != "platform" {
		t.Fatalf("DOTENV_TEST_KEEP = %q, want platform", got)
	}
}

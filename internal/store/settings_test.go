package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/erazemk/vitrina/internal/db"
)

func TestGetSessionSecret_GeneratesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.sqlite3")
	ctx := context.Background()

	open := func() string {
		database, err := db.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		defer database.Close()
		if err := db.Migrate(database); err != nil {
			t.Fatal(err)
		}
		secret, err := GetSessionSecret(ctx, database)
		if err != nil {
			t.Fatal(err)
		}
		return secret
	}

	secret1 := open()
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	// Reopening the database must return the same secret.
	secret2 := open()
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

package markov

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/suPer8Hu/chainbot/internal/db"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Connect("sqlite", filepath.Join(t.TempDir(), "markov.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func allPairs(t *testing.T, gdb *gorm.DB) []WordPair {
	t.Helper()
	var out []WordPair
	if err := gdb.Order("rowid ASC").Find(&out).Error; err != nil {
		t.Fatalf("query pairs: %v", err)
	}
	return out
}

func mustIngest(t *testing.T, u *Updater, text string) {
	t.Helper()
	if err := u.Ingest(context.Background(), text); err != nil {
		t.Fatalf("ingest %q: %v", text, err)
	}
}

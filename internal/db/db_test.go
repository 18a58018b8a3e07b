package db

import (
	"path/filepath"
	"testing"
)

func TestSQLiteDSN(t *testing.T) {
	cases := map[string]string{
		"markov.db":                    "markov.db?" + sqlitePragmas,
		"file:markov.db?cache=private": "file:markov.db?cache=private&" + sqlitePragmas,
		"file::memory:?cache=shared":   "file::memory:?cache=shared",
		"x.db?_pragma=foreign_keys(1)": "x.db?_pragma=foreign_keys(1)",
	}
	for in, want := range cases {
		if got := SQLiteDSN(in); got != want {
			t.Fatalf("SQLiteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConnect_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markov.db")
	gdb, err := Connect("sqlite", path)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := gdb.Exec("CREATE TABLE probe (v TEXT)").Error; err != nil {
		t.Fatalf("exec: %v", err)
	}
	sqlDB, _ := gdb.DB()
	_ = sqlDB.Close()
}

func TestConnect_UnknownDriver(t *testing.T) {
	if _, err := Connect("oracle", "x"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

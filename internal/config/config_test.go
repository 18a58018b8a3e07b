package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"TRIGGER_PREFIX", "MAX_WORDS", "DB_DRIVER", "DB_DSN", "EXCLUDED_AUTHOR_IDS", "INGEST_ATOMIC", "RABBIT_QUEUE"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.TriggerPrefix != "e!talk" {
		t.Fatalf("unexpected prefix: %q", cfg.TriggerPrefix)
	}
	if cfg.MaxWords != 21 {
		t.Fatalf("unexpected max words: %d", cfg.MaxWords)
	}
	if cfg.DBDriver != "sqlite" || cfg.DBDSN != "markov.db" {
		t.Fatalf("unexpected db config: %s %s", cfg.DBDriver, cfg.DBDSN)
	}
	if len(cfg.ExcludedAuthorIDs) != 0 {
		t.Fatalf("expected no excluded authors, got %v", cfg.ExcludedAuthorIDs)
	}
	if cfg.IngestAtomic {
		t.Fatalf("expected non-atomic ingestion by default")
	}
	if cfg.RabbitQueue != "markov_events" {
		t.Fatalf("unexpected queue: %q", cfg.RabbitQueue)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TRIGGER_PREFIX", "!say")
	t.Setenv("MAX_WORDS", "5")
	t.Setenv("EXCLUDED_AUTHOR_IDS", " 1, ,2 ,3")
	t.Setenv("INGEST_ATOMIC", "true")
	t.Setenv("DB_DRIVER", "MySQL")

	cfg := Load()
	if cfg.TriggerPrefix != "!say" || cfg.MaxWords != 5 {
		t.Fatalf("unexpected overrides: %q %d", cfg.TriggerPrefix, cfg.MaxWords)
	}
	if got := cfg.ExcludedAuthorIDs; len(got) != 3 || got[0] != "1" || got[1] != "2" || got[2] != "3" {
		t.Fatalf("unexpected excluded authors: %v", got)
	}
	if !cfg.IngestAtomic {
		t.Fatalf("expected atomic ingestion")
	}
	if cfg.DBDriver != "mysql" {
		t.Fatalf("expected lowercased driver, got %q", cfg.DBDriver)
	}
}

func TestLoad_InvalidMaxWordsFallsBack(t *testing.T) {
	t.Setenv("MAX_WORDS", "-3")
	if got := Load().MaxWords; got != 21 {
		t.Fatalf("expected default max words, got %d", got)
	}
}

func TestLoad_NoDefaultJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if got := Load().JWTSecret; got != "" {
		t.Fatalf("expected empty secret, got %q", got)
	}
}

func TestValidateAPI(t *testing.T) {
	cases := map[string]bool{
		"":                                   false,
		"dev-secret-change-me":               false,
		"DEV-SECRET-CHANGE-ME":               false,
		"short":                              false,
		"a-long-random-value-from-the-vault": true,
	}
	for secret, want := range cases {
		err := Config{JWTSecret: secret}.ValidateAPI()
		if (err == nil) != want {
			t.Fatalf("secret %q: valid=%v, err=%v", secret, want, err)
		}
	}
}

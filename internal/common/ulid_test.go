package common

import (
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestNewULID(t *testing.T) {
	a, err := NewULID()
	if err != nil {
		t.Fatalf("new ulid: %v", err)
	}
	b, err := NewULID()
	if err != nil {
		t.Fatalf("new ulid: %v", err)
	}
	if len(a) != 26 || a == b {
		t.Fatalf("unexpected ids %q %q", a, b)
	}
	if _, err := ulid.Parse(a); err != nil {
		t.Fatalf("parse: %v", err)
	}
}

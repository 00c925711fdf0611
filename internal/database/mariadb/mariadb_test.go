package mariadb

import (
	"strings"
	"testing"
)

func TestNormalizeDSN_ForcesParseTime(t *testing.T) {
	dsn, err := normalizeDSN("diary:secret@tcp(localhost:3306)/diary")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("expected parseTime=true in %s", dsn)
	}
	if !strings.HasPrefix(dsn, "diary:secret@tcp(localhost:3306)/diary") {
		t.Errorf("expected credentials and address to be kept, got %s", dsn)
	}
}

func TestNormalizeDSN_Invalid(t *testing.T) {
	if _, err := normalizeDSN("not a dsn"); err == nil {
		t.Error("expected error for invalid DSN")
	}
}

func TestNewPool_EmptyDSN(t *testing.T) {
	if _, err := NewPool(""); err == nil {
		t.Error("expected error for empty DSN")
	}
}

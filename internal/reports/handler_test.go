package reports

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateAPIKeyRoundTrip(t *testing.T) {
	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	if !strings.HasPrefix(plaintext, apiKeyPrefix) {
		t.Errorf("plaintext %q missing prefix %q", plaintext, apiKeyPrefix)
	}
	if prefix != plaintext[:12] {
		t.Errorf("prefix = %q, want first 12 chars of key", prefix)
	}
	if HashKey(plaintext) != hash {
		t.Error("HashKey(plaintext) does not match generated hash")
	}
}

func TestParseDateRange(t *testing.T) {
	from, to, err := parseDateRange("2026-03-01", "2026-03-31")
	if err != nil {
		t.Fatalf("parseDateRange: %v", err)
	}
	if from != time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("from = %v", from)
	}
	// Inclusive upper bound covers the whole to-day.
	if !to.After(time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("to = %v, want end of March 31", to)
	}

	if _, _, err := parseDateRange("31-03-2026", ""); err == nil {
		t.Error("expected error for malformed from date")
	}
	if _, _, err := parseDateRange("2026-03-31", "2026-03-01"); err == nil {
		t.Error("expected error for inverted range")
	}
}

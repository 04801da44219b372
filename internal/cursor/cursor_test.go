package cursor

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		sortAt time.Time
		id     string
	}{
		{time.Date(2025, 10, 22, 7, 20, 0, 0, time.UTC), "3f1b3a0e-8a4e-4a2f-9c53-58a1f0a2a001"},
		{time.Date(2024, 1, 1, 0, 0, 0, 123456789, time.UTC), "a"},
		{time.Date(2025, 12, 31, 23, 59, 59, 0, time.FixedZone("X", -8*3600)), "id-with-dash"},
	}
	for _, tt := range tests {
		token := Encode(tt.sortAt, tt.id)
		got, err := Decode(token)
		if err != nil {
			t.Fatalf("Decode(Encode(%v, %q)): %v", tt.sortAt, tt.id, err)
		}
		if !got.SortAt.Equal(tt.sortAt) {
			t.Fatalf("sort_at = %v, want %v", got.SortAt, tt.sortAt)
		}
		if got.ID != tt.id {
			t.Fatalf("id = %q, want %q", got.ID, tt.id)
		}
	}
}

func TestEncodeIsURLSafe(t *testing.T) {
	token := Encode(time.Now().UTC(), "f4b2c1d0-0000-0000-0000-000000000000")
	if strings.ContainsAny(token, "+/=") {
		t.Fatalf("token %q contains non-url-safe characters", token)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	bad := []string{
		"",
		"not-base64!!!",
		base64.RawURLEncoding.EncodeToString([]byte("not json")),
		base64.RawURLEncoding.EncodeToString([]byte(`[]`)),
		base64.RawURLEncoding.EncodeToString([]byte(`{"sort_at":"2025-10-22T07:20:00Z"}`)),
		base64.RawURLEncoding.EncodeToString([]byte(`{"id":"abc"}`)),
		base64.RawURLEncoding.EncodeToString([]byte(`{"sort_at":"yesterday","id":"abc"}`)),
		base64.RawURLEncoding.EncodeToString([]byte(`{"sort_at":"2025-10-22T07:20:00Z","id":"abc","page":2}`)),
		base64.RawURLEncoding.EncodeToString([]byte(`{"sort_at":"2025-10-22T07:20:00Z","id":"abc"} trailing`)),
	}
	for _, token := range bad {
		if _, err := Decode(token); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("Decode(%q) err = %v, want ErrInvalidCursor", token, err)
		}
	}
}

func TestDecodeRejectsPaddedTokens(t *testing.T) {
	raw := []byte(`{"sort_at":"2025-10-22T07:20:00Z","id":"ab"}`)
	padded := base64.URLEncoding.EncodeToString(raw)
	if !strings.Contains(padded, "=") {
		t.Fatalf("fixture must produce a padded token, got %q", padded)
	}
	if _, err := Decode(padded); !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("padded token: got %v, want ErrInvalidCursor", err)
	}
	// The same payload without padding is the canonical form and decodes.
	if _, err := Decode(base64.RawURLEncoding.EncodeToString(raw)); err != nil {
		t.Fatalf("canonical token: %v", err)
	}
}

func TestDecodeRejectsTruncated(t *testing.T) {
	token := Encode(time.Now().UTC(), "3f1b3a0e-8a4e-4a2f-9c53-58a1f0a2a001")
	for i := 1; i < len(token); i += 7 {
		if _, err := Decode(token[:i]); err == nil {
			// A truncation can only pass if it still decodes to both fields,
			// which the fixed shape makes impossible.
			t.Fatalf("Decode of truncated token %q unexpectedly succeeded", token[:i])
		}
	}
}

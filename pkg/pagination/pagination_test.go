package pagination

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	if NormalizeLimit(0) != DefaultLimit {
		t.Fatalf("expected default limit")
	}
	if NormalizeLimit(MaxLimit+10) != MaxLimit {
		t.Fatalf("expected max limit cap")
	}
	if LimitWithBuffer(10) != 11 {
		t.Fatalf("expected buffered limit")
	}
}

func TestCursorRoundTripIsQuerySafe(t *testing.T) {
	in := Cursor{SortAt: time.Date(2026, 1, 5, 9, 30, 0, 123, time.UTC), ID: uuid.New()}
	encoded := in.Encode()
	if strings.ContainsAny(encoded, "+/=") {
		t.Fatalf("cursor %q is not url safe", encoded)
	}
	out, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if !out.SortAt.Equal(in.SortAt) || out.ID != in.ID {
		t.Fatalf("cursor mismatch: %+v vs %+v", out, in)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if c, err := ParseCursor("  "); err != nil || c != nil {
		t.Fatalf("blank cursor should be nil, got %v %v", c, err)
	}
	if _, err := ParseCursor("not-base64!"); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := ParseCursor("bm8tc2VwYXJhdG9y"); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestSplit(t *testing.T) {
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	key := func(id uuid.UUID) Cursor { return Cursor{SortAt: base, ID: id} }

	rows, next := Split(ids, 2, key)
	if len(rows) != 2 || next == "" {
		t.Fatalf("expected a trimmed page with a cursor, got %d rows and %q", len(rows), next)
	}
	c, err := ParseCursor(next)
	if err != nil || c.ID != ids[1] {
		t.Fatalf("expected cursor at the last served row, got %+v %v", c, err)
	}

	rows, next = Split(ids[:2], 2, key)
	if len(rows) != 2 || next != "" {
		t.Fatalf("expected last page without cursor, got %d rows and %q", len(rows), next)
	}
}

package numerator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64 // Simulates DB sequence value
	lastIncr     int64 // Track last increment passed
	err          error
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return &mockRow{err: m.err}
	}

	// args: owner_id, sequence_key[, increment]
	var increment int64 = 1
	if len(args) == 3 {
		if val, ok := args[2].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	m.lastIncr = increment

	return &mockRow{val: m.currentValue}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("VTE")
	year := time.Now().Year()

	num, err := svc.GetNextNumber(ctx, cfg, nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := fmt.Sprintf("VTE-%d-00001", year)
	if num != want {
		t.Errorf("expected %s, got %s", want, num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = fmt.Sprintf("VTE-%d-00002", year)
	if num != want {
		t.Errorf("expected %s, got %s", want, num)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("CLI")
	cfg.IncludeYear = false
	cfg.ResetPeriod = "never"
	opts := &Options{Strategy: StrategyCached, RangeSize: 10}

	// First call allocates a range of 10 from the DB.
	num, err := svc.GetNextNumber(ctx, cfg, opts, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "CLI-00001" {
		t.Errorf("expected CLI-00001, got %s", num)
	}
	if q.lastIncr != 10 {
		t.Errorf("expected range allocation of 10, got %d", q.lastIncr)
	}

	// Next nine numbers come from memory without touching the DB.
	q.err = fmt.Errorf("db should not be hit")
	for i := 2; i <= 10; i++ {
		num, err = svc.GetNextNumber(ctx, cfg, opts, time.Now())
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		want := fmt.Sprintf("CLI-%05d", i)
		if num != want {
			t.Errorf("call %d: expected %s, got %s", i, want, num)
		}
	}

	// Range exhausted: the next call must hit the DB again.
	if _, err = svc.GetNextNumber(ctx, cfg, opts, time.Now()); err == nil {
		t.Error("expected error when range exhausted and DB unavailable")
	}
}

func TestBuildKey_ResetPeriods(t *testing.T) {
	svc := New(&mockQuerier{})
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		reset string
		want  string
	}{
		{"year", "REC_2026"},
		{"month", "REC_2026_03"},
		{"never", "REC"},
	}

	for _, tt := range tests {
		cfg := DefaultConfig("REC")
		cfg.ResetPeriod = tt.reset
		if got := svc.buildKey(cfg, period); got != tt.want {
			t.Errorf("reset=%s: expected %s, got %s", tt.reset, tt.want, got)
		}
	}
}

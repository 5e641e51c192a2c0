package numerator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"stoka/internal/core/id"
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
	currentValue int64 // simulates DB sequence value
	queryCount   int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCount++

	// Strict passes (tenant, key): implicit +1.
	// Cached passes (tenant, key, increment): adds the increment.
	// SetNextNumber passes (tenant, key, value): overwrites.
	switch {
	case strings.Contains(sql, "sys_sequences.current_val + $3"):
		m.currentValue += args[2].(int64)
	case strings.Contains(sql, "current_val = $3"):
		m.currentValue = args[2].(int64)
	default:
		m.currentValue++
	}

	return &mockRow{val: m.currentValue}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("TEST")
	tenantID := id.New()
	year := time.Now().Format("2006")

	num, err := svc.GetNextNumber(ctx, tenantID, cfg, nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "TEST-"+year+"-00001" {
		t.Errorf("expected TEST-%s-00001, got %s", year, num)
	}

	num, err = svc.GetNextNumber(ctx, tenantID, cfg, nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "TEST-"+year+"-00002" {
		t.Errorf("expected TEST-%s-00002, got %s", year, num)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("SO")
	tenantID := id.New()
	year := time.Now().Format("2006")

	opts := &Options{
		Strategy:  StrategyCached,
		RangeSize: 10,
	}

	// First call reserves 1..10 in one round-trip.
	num, err := svc.GetNextNumber(ctx, tenantID, cfg, opts, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "SO-"+year+"-00001" {
		t.Errorf("expected SO-%s-00001, got %s", year, num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected DB value to be 10, got %d", q.currentValue)
	}

	// Second call comes from memory, no DB round-trip.
	num, err = svc.GetNextNumber(ctx, tenantID, cfg, opts, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "SO-"+year+"-00002" {
		t.Errorf("expected SO-%s-00002, got %s", year, num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected DB value to stay 10, got %d", q.currentValue)
	}

	// Exhaust the range; the next call must reserve 11..20.
	for i := 0; i < 8; i++ {
		_, _ = svc.GetNextNumber(ctx, tenantID, cfg, opts, time.Now())
	}

	num, err = svc.GetNextNumber(ctx, tenantID, cfg, opts, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "SO-"+year+"-00011" {
		t.Errorf("expected SO-%s-00011, got %s", year, num)
	}
	if q.currentValue != 20 {
		t.Errorf("expected DB value to be 20, got %d", q.currentValue)
	}
}

func TestCachedRanges_PerTenant(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("SO")
	opts := &Options{Strategy: StrategyCached, RangeSize: 10}

	tenantA := id.New()
	tenantB := id.New()

	numA, err := svc.GetNextNumber(ctx, tenantA, cfg, opts, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A different tenant must get its own range, not numbers from A's cache.
	numB, err := svc.GetNextNumber(ctx, tenantB, cfg, opts, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.queryCount != 2 {
		t.Errorf("expected each tenant to reserve its own range, query count = %d", q.queryCount)
	}
	_ = numA
	_ = numB
}

func TestSetNextNumber_InvalidatesCache(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("PO")
	opts := &Options{Strategy: StrategyCached, RangeSize: 10}
	tenantID := id.New()
	now := time.Now()

	// Fill cache (1..10).
	if _, err := svc.GetNextNumber(ctx, tenantID, cfg, opts, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.SetNextNumber(ctx, tenantID, cfg, now, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Cache was dropped: the next call reserves a fresh range above 100.
	num, err := svc.GetNextNumber(ctx, tenantID, cfg, opts, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	year := now.Format("2006")
	if num != "PO-"+year+"-00101" {
		t.Errorf("expected PO-%s-00101, got %s", year, num)
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"PO-2026-00042", 42},
		{"EXP-00007", 7},
		{"garbage", -1},
	}
	for _, c := range cases {
		if got := ParseNumber(c.in); got != c.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

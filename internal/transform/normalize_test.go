package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-12-31", "2024-12-31", true},
		{" 2024-12-31 ", "2024-12-31", true},
		{"2024-12-31T10:30:00Z", "2024-12-31", true},
		{"20241231", "2024-12-31", true},
		{"2024/12/31", "2024-12-31", true},
		{"31.12.2024", "2024-12-31", true},
		{"31/12/2024", "2024-12-31", true},
		{"31 December 2024", "2024-12-31", true},
		{"December 31, 2024", "2024-12-31", true},
		{"not a date", "not a date", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeDate(tt.in)
		require.Equal(t, tt.ok, ok, "input %q", tt.in)
		require.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestNormalizeDateIdempotent(t *testing.T) {
	out, ok := NormalizeDate("31.12.2024")
	require.True(t, ok)
	again, ok := NormalizeDate(out)
	require.True(t, ok)
	require.Equal(t, out, again)
}

func TestNormalizeTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	out, ok := NormalizeTimestamp("2025-01-15T10:30:00Z", now)
	require.True(t, ok)
	require.Equal(t, "2025-01-15T10:30:00Z", out)

	out, ok = NormalizeTimestamp("2025-01-15 10:30:00", now)
	require.True(t, ok)
	require.Equal(t, "2025-01-15T10:30:00Z", out)

	// Garbage falls back to the injected clock, flagged via ok=false.
	out, ok = NormalizeTimestamp("whenever", now)
	require.False(t, ok)
	require.Equal(t, "2025-03-01T12:00:00Z", out)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1234567", 1234567, true},
		{"1,234,567", 1234567, true},
		{"1,234,567.89", 1234567.89, true},
		{"1.234.567,89", 1234567.89, true},
		{"1 234 567", 1234567, true},
		{"1_000_000", 1000000, true},
		{"123,45", 123.45, true},
		{"1,234", 1234, true},
		{"(500)", -500, true},
		{"-42.5", -42.5, true},
		{"0", 0, true},
		{"", 0, false},
		{"garbage", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		require.Equal(t, tt.ok, ok, "input %q", tt.in)
		require.InDelta(t, tt.want, got, 0.001, "input %q", tt.in)
	}
}

func TestNormalizeEnum(t *testing.T) {
	out, ok := NormalizeEnum("oecd1", cbc.DocTypeIndics(), cbc.DocTypeNewData)
	require.True(t, ok)
	require.Equal(t, "OECD1", out)

	out, ok = NormalizeEnum(" CBC401 ", cbc.MessageTypeIndics(), cbc.MessageTypeIndicNewData)
	require.True(t, ok)
	require.Equal(t, "CBC401", out)

	out, ok = NormalizeEnum("OECD99", cbc.DocTypeIndics(), cbc.DocTypeNewData)
	require.False(t, ok)
	require.Equal(t, cbc.DocTypeNewData, out)
}

package types

import (
	"testing"
)

func TestPoolMode_String(t *testing.T) {
	tests := []struct {
		mode     PoolMode
		expected string
	}{
		{ModeFixed, "fixed"},
		{ModeCached, "cached"},
		{PoolMode(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := tt.mode.String()
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestParsePoolMode(t *testing.T) {
	tests := []struct {
		input    string
		expected PoolMode
		wantErr  bool
	}{
		{"fixed", ModeFixed, false},
		{"cached", ModeCached, false},
		{"Fixed", ModeFixed, false},
		{"CACHED", ModeCached, false},
		{"  cached  ", ModeCached, false},
		{"elastic", ModeFixed, true},
		{"", ModeFixed, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParsePoolMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if mode != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, mode)
			}
		})
	}
}

func TestPoolStats(t *testing.T) {
	t.Run("Success Rate", func(t *testing.T) {
		stats := PoolStats{Completed: 3, Failed: 1}
		if rate := stats.SuccessRate(); rate != 0.75 {
			t.Errorf("expected success rate 0.75, got %v", rate)
		}
	})

	t.Run("Success Rate With No Tasks", func(t *testing.T) {
		stats := PoolStats{}
		if rate := stats.SuccessRate(); rate != 0 {
			t.Errorf("expected success rate 0, got %v", rate)
		}
	})

	t.Run("Busy Workers", func(t *testing.T) {
		stats := PoolStats{Workers: 8, IdleWorkers: 5}
		if busy := stats.Busy(); busy != 3 {
			t.Errorf("expected 3 busy workers, got %d", busy)
		}
	})

	t.Run("Busy Never Negative", func(t *testing.T) {
		stats := PoolStats{Workers: 2, IdleWorkers: 3}
		if busy := stats.Busy(); busy != 0 {
			t.Errorf("expected 0 busy workers, got %d", busy)
		}
	})
}

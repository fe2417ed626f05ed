package feed

import (
	"errors"
	"testing"
)

func TestAdvance_Forward(t *testing.T) {
	tests := []struct {
		cursor, total int
		want          int
		wantErr       error
	}{
		{0, 3, 1, nil},
		{1, 3, 2, nil},
		{2, 3, 2, ErrAtEnd},
		{0, 1, 0, ErrAtEnd},
	}
	for _, tt := range tests {
		got, err := Advance(tt.cursor, tt.total, true)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Advance(%d, %d, forward) err = %v, want %v", tt.cursor, tt.total, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Advance(%d, %d, forward) = %d, want %d", tt.cursor, tt.total, got, tt.want)
		}
	}
}

func TestAdvance_Backward(t *testing.T) {
	tests := []struct {
		cursor, total int
		want          int
		wantErr       error
	}{
		{2, 3, 1, nil},
		{1, 3, 0, nil},
		{0, 3, 0, ErrAtStart},
	}
	for _, tt := range tests {
		got, err := Advance(tt.cursor, tt.total, false)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Advance(%d, %d, backward) err = %v, want %v", tt.cursor, tt.total, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Advance(%d, %d, backward) = %d, want %d", tt.cursor, tt.total, got, tt.want)
		}
	}
}

func TestInjectPromo(t *testing.T) {
	tests := []struct {
		name       string
		roll, rate float64
		promos     int
		afterPromo bool
		want       bool
	}{
		{"below threshold", 0.1, 0.2, 1, false, true},
		{"above threshold", 0.5, 0.2, 1, false, false},
		{"at threshold", 0.2, 0.2, 1, false, false},
		{"no promos", 0.1, 0.2, 0, false, false},
		{"right after promo", 0.1, 0.2, 1, true, false},
	}
	for _, tt := range tests {
		if got := InjectPromo(tt.roll, tt.rate, tt.promos, tt.afterPromo); got != tt.want {
			t.Errorf("%s: InjectPromo = %v, want %v", tt.name, got, tt.want)
		}
	}
}

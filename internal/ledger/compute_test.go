package ledger

import (
	"encoding/json"
	"testing"
)

func floatEquals(a, b, tolerance float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

func f(v float64) *float64 { return &v }

func TestComputeProfitLoss(t *testing.T) {
	tests := []struct {
		name       string
		starting   *float64
		ending     *float64
		refill     *float64
		withdrawal *float64
		want       float64
	}{
		{
			name:       "winning day with withdrawal",
			starting:   f(1000),
			ending:     f(1200),
			refill:     f(0),
			withdrawal: f(50),
			want:       250,
		},
		{
			name:       "losing day",
			starting:   f(500),
			ending:     f(300),
			refill:     f(0),
			withdrawal: f(0),
			want:       -200,
		},
		{
			name:       "refill is not profit",
			starting:   f(100),
			ending:     f(600),
			refill:     f(500),
			withdrawal: f(0),
			want:       0,
		},
		{
			name:       "all fields blank",
			starting:   nil,
			ending:     nil,
			refill:     nil,
			withdrawal: nil,
			want:       0,
		},
		{
			name:       "blank starting treated as zero",
			starting:   nil,
			ending:     f(150),
			refill:     nil,
			withdrawal: nil,
			want:       150,
		},
		{
			name:       "withdrawal counts as realized gain",
			starting:   f(1000),
			ending:     f(1000),
			refill:     nil,
			withdrawal: f(300),
			want:       300,
		},
		{
			name:       "refill and withdrawal offset",
			starting:   f(200),
			ending:     f(200),
			refill:     f(100),
			withdrawal: f(100),
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeProfitLoss(tt.starting, tt.ending, tt.refill, tt.withdrawal)
			if !floatEquals(got, tt.want, 0.0001) {
				t.Errorf("ComputeProfitLoss() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAmountUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValue float64
		wantValid bool
		wantErr   bool
	}{
		{name: "number", input: `42.5`, wantValue: 42.5, wantValid: true},
		{name: "zero is present", input: `0`, wantValue: 0, wantValid: true},
		{name: "numeric string", input: `"1200"`, wantValue: 1200, wantValid: true},
		{name: "empty string is blank", input: `""`, wantValid: false},
		{name: "null is blank", input: `null`, wantValid: false},
		{name: "negative", input: `-15.25`, wantValue: -15.25, wantValid: true},
		{name: "garbage string", input: `"abc"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Amount
			err := json.Unmarshal([]byte(tt.input), &a)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", a.Valid, tt.wantValid)
			}
			if a.Valid && !floatEquals(a.Value, tt.wantValue, 0.0001) {
				t.Errorf("Value = %v, want %v", a.Value, tt.wantValue)
			}
		})
	}
}

func TestAmountPtrRoundTrip(t *testing.T) {
	blank := Amount{}
	if blank.Ptr() != nil {
		t.Error("blank amount should convert to nil pointer")
	}

	present := Amount{Value: 0, Valid: true}
	p := present.Ptr()
	if p == nil || *p != 0 {
		t.Error("explicit zero should survive conversion")
	}

	if got := FromPtr(nil); got.Valid {
		t.Error("nil pointer should convert to blank")
	}
	if got := FromPtr(f(7)); !got.Valid || got.Value != 7 {
		t.Errorf("FromPtr(7) = %+v", got)
	}
}

func TestAmountOr(t *testing.T) {
	if got := (Amount{}).Or(99); got != 99 {
		t.Errorf("blank.Or(99) = %v, want 99", got)
	}
	if got := (Amount{Value: 3, Valid: true}).Or(99); got != 3 {
		t.Errorf("present.Or(99) = %v, want 3", got)
	}
}

package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFromFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want Amount
	}{
		{0, 0},
		{0.2, 20},
		{1.005, 101},
		{2.344, 234},
		{2.345, 235},
		{4.999, 500},
		{20, 2000},
	}
	for _, tt := range tests {
		if got := FromFloat(tt.in); got != tt.want {
			t.Errorf("FromFloat(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFromDecimalNegativeHalf(t *testing.T) {
	// floor(x*100 + 0.5) moves negative halves toward zero.
	if got := FromDecimal(decimal.RequireFromString("-0.125")); got != -12 {
		t.Errorf("FromDecimal(-0.125) = %d, want -12", got)
	}
}

func TestParseTransfer(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{"10", 1000, false},
		{"10.5", 1050, false},
		{"10,5", 1050, false},
		{"3.999", 399, false},
		{" 7,129 ", 712, false},
		{".5", 50, false},
		{"0", 0, false},
		{"-4", -400, false},
		{"", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
		{"5.", 0, true},
		{"1e3", 0, true},
		{"12.x", 0, true},
		{"999999999999999", 99999999999999900, false},
		{"0000000000000000000007.25", 725, false},
		{"1000000000000000", 0, true},
		{"92233720368547758079", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTransfer(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTransfer(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformed) {
				t.Fatalf("ParseTransfer(%q) error = %v, want ErrMalformed", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseTransfer(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Amount
	}{
		{"5", 500},
		{"-3.255", -326},
		{"1.005", 101},
		{"+2", 200},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
	for _, bad := range []string{"ten", "1e20", "-1000000000000000"} {
		if _, err := Parse(bad); !errors.Is(err, ErrMalformed) {
			t.Errorf("Parse(%q) error = %v, want ErrMalformed", bad, err)
		}
	}
}

func TestString(t *testing.T) {
	if s := Cents(1250).String(); s != "12.50" {
		t.Errorf("String() = %q", s)
	}
	if s := Cents(-5).Signed(); s != "-0.05" {
		t.Errorf("Signed() = %q", s)
	}
	if s := Cents(100).Signed(); s != "+1.00" {
		t.Errorf("Signed() = %q", s)
	}
}

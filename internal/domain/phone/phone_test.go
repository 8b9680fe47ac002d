package phone

import (
	"errors"
	"testing"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "bare local", raw: "555123456", want: "+996555123456"},
		{name: "with country code", raw: "+996555123456", want: "+996555123456"},
		{name: "leading zero trunk", raw: "0555123456", want: "+996555123456"},
		{name: "spaces and dashes", raw: "0555 12-34-56", want: "+996555123456"},
		{name: "parentheses", raw: "+996 (555) 123456", want: "+996555123456"},
		{name: "too short", raw: "12345", wantErr: true},
		{name: "no digits", raw: "abc", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.raw)
			if tc.wantErr {
				if !errors.Is(err, types.ErrInvalidPhoneNumber) {
					t.Fatalf("Normalize(%q) error = %v, want ErrInvalidPhoneNumber", tc.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) unexpected error: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	if !Equal("0555123456", "+996555123456") {
		t.Error("expected numbers to be equal after normalization")
	}
	if Equal("0555123456", "0555123457") {
		t.Error("different numbers reported equal")
	}
	if Equal("abc", "abc") {
		t.Error("invalid numbers must never be equal")
	}
}

// Package phone holds the single authoritative phone number normalization
// used everywhere a phone enters the system: registration, login, lookups.
package phone

import (
	"strings"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

const (
	countryPrefix = "+996"
	localDigits   = 9
)

// Normalize приводит номер к каноническому виду "+996XXXXXXXXX".
// Берутся последние 9 цифр, всё остальное (код страны, пробелы,
// скобки, дефисы) отбрасывается.
func Normalize(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	if len(d) < localDigits {
		return "", types.ErrInvalidPhoneNumber
	}

	return countryPrefix + d[len(d)-localDigits:], nil
}

// Equal reports whether two raw numbers normalize to the same canonical form.
func Equal(a, b string) bool {
	na, errA := Normalize(a)
	nb, errB := Normalize(b)
	if errA != nil || errB != nil {
		return false
	}
	return na == nb
}

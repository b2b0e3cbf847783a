// Package inn validates Russian organization tax identifiers.
package inn

import "errors"

var ErrInvalidINN = errors.New("invalid_inn")

// Validate accepts only 10- or 12-digit numeric strings.
func Validate(value string) error {
	if len(value) != 10 && len(value) != 12 {
		return ErrInvalidINN
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return ErrInvalidINN
		}
	}
	return nil
}

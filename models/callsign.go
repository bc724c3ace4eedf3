package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyMake = errors.New("vehicle make is empty")
	ErrBadPlate  = errors.New("plate must be 1 to 4 digits")
)

// ValidationError is returned for malformed registration input.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// radiotelephony digits; 3 and 9 follow the ICAO pronunciation
var spokenDigits = map[rune]string{
	'0': "zero", '1': "one", '2': "two", '3': "tree", '4': "four",
	'5': "five", '6': "six", '7': "seven", '8': "eight", '9': "niner",
}

// CallSign is the uppercase vehicle make followed by the plate digits.
type CallSign struct {
	vehicle string
	digits  string
}

func MakeCallSign(vehicleMake, plateDigits string) (CallSign, error) {
	vehicleMake = strings.TrimSpace(vehicleMake)
	plateDigits = strings.TrimSpace(plateDigits)
	if vehicleMake == "" {
		return CallSign{}, &ValidationError{Field: "make", Err: ErrEmptyMake}
	}
	if len(plateDigits) == 0 || len(plateDigits) > 4 {
		return CallSign{}, &ValidationError{Field: "plate", Err: ErrBadPlate}
	}
	for _, r := range plateDigits {
		if r < '0' || r > '9' {
			return CallSign{}, &ValidationError{Field: "plate", Err: ErrBadPlate}
		}
	}
	return CallSign{vehicle: strings.ToUpper(vehicleMake), digits: plateDigits}, nil
}

func (c CallSign) String() string {
	return c.vehicle + c.digits
}

func (c CallSign) IsZero() bool {
	return c.vehicle == "" && c.digits == ""
}

func (c CallSign) Make() string   { return c.vehicle }
func (c CallSign) Digits() string { return c.digits }

// Equal compares call signs case-insensitively.
func (c CallSign) Equal(other CallSign) bool {
	return strings.EqualFold(c.String(), other.String())
}

// Spoken reads the plate digit by digit, e.g. "HONDA seven four seven".
func (c CallSign) Spoken() string {
	words := make([]string, 0, len(c.digits)+1)
	words = append(words, c.vehicle)
	for _, r := range c.digits {
		words = append(words, spokenDigits[r])
	}
	return strings.Join(words, " ")
}

// Brackets reports whether the transcript opens and closes with the call sign.
// A transcript consisting of the call sign once counts as bracketed.
func (c CallSign) Brackets(transcript string) bool {
	if c.IsZero() {
		return false
	}
	upper := strings.ToUpper(strings.TrimSpace(transcript))
	cs := c.String()
	return strings.HasPrefix(upper, cs) && strings.HasSuffix(upper, cs)
}

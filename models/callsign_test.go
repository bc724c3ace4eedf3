package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMakeCallSign(t *testing.T) {
	cases := []struct {
		make   string
		digits string
		want   string
		err    error
	}{
		{make: "Honda", digits: "747", want: "HONDA747"},
		{make: "  subaru ", digits: "12", want: "SUBARU12"},
		{make: "Kia", digits: "0001", want: "KIA0001"},
		{make: "Kia", digits: "7", want: "KIA7"},
		{make: "", digits: "747", err: ErrEmptyMake},
		{make: "   ", digits: "747", err: ErrEmptyMake},
		{make: "Honda", digits: "", err: ErrBadPlate},
		{make: "Honda", digits: "12345", err: ErrBadPlate},
		{make: "Honda", digits: "7a7", err: ErrBadPlate},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("run_%d", i), func(t *testing.T) {
			cs, err := MakeCallSign(tc.make, tc.digits)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("expected %v, got %v", tc.err, err)
				}
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cs.String() != tc.want {
				t.Errorf("expected %s, got %s", tc.want, cs.String())
			}
			again, _ := MakeCallSign(tc.make, tc.digits)
			if again != cs {
				t.Errorf("call sign is not deterministic: %v vs %v", again, cs)
			}
			if want := strings.ToUpper(strings.TrimSpace(tc.make)) + tc.digits; cs.String() != want {
				t.Errorf("expected %s, got %s", want, cs)
			}
		})
	}
}

func TestCallSignEqual(t *testing.T) {
	a, _ := MakeCallSign("honda", "747")
	b, _ := MakeCallSign("HONDA", "747")
	c, _ := MakeCallSign("Honda", "748")
	if !a.Equal(b) {
		t.Errorf("expected %s == %s", a, b)
	}
	if a.Equal(c) {
		t.Errorf("expected %s != %s", a, c)
	}
}

func TestCallSignBrackets(t *testing.T) {
	cs, err := MakeCallSign("Honda", "747")
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		transcript string
		want       bool
	}{
		{"HONDA747 approaching Main Street HONDA747", true},
		{"honda747 turning left honda747", true},
		{"  HONDA747 copy HONDA747  ", true},
		{"approaching Main Street", false},
		{"HONDA747 approaching Main Street", false},
		{"approaching Main Street HONDA747", false},
		{"HONDA747", true}, // prefix and suffix overlap
		{"", false},
		{"HONDA 747 turning HONDA 747", false},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("run_%d", i), func(t *testing.T) {
			if got := cs.Brackets(tc.transcript); got != tc.want {
				t.Errorf("Brackets(%q) = %v; expected %v", tc.transcript, got, tc.want)
			}
		})
	}
	var zero CallSign
	if zero.Brackets("") {
		t.Errorf("zero call sign must not bracket anything")
	}
}

func TestCallSignSpoken(t *testing.T) {
	cs, _ := MakeCallSign("Honda", "7390")
	want := "HONDA seven tree niner zero"
	if got := cs.Spoken(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

package streets

import (
	"fmt"
	"testing"
)

func TestNormalizeForSpeech(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"Main St", "Main Street"},
		{"Main St.", "Main Street"},
		{"5th Ave & Pine St", "5th Avenue and Pine Street"},
		{"Sunset Blvd", "Sunset Boulevard"},
		{"MULHOLLAND DR", "MULHOLLAND Drive"},
		{"Old Mill Rd.", "Old Mill Road"},
		{"Cherry Ln", "Cherry Lane"},
		{"Court Ct", "Court Court"},
		{"Elm Pl", "Elm Place"},
		{"Garden State Pkwy", "Garden State Parkway"},
		{"Dupont Cir", "Dupont Circle"},
		{"Ocean Ter", "Ocean Terrace"},
		{"Pacific Coast Hwy", "Pacific Coast Highway"},
		{"Stanford Ave", "Stanford Avenue"}, // no partial word match
		{"Drake Street", "Drake Street"},
		{"  Main    St  ", "Main Street"},
		{"A&B", "A and B"},
		{"", ""},
	}
	for _, tc := range cases {
		result := NormalizeForSpeech(tc.input)
		if result != tc.expected {
			t.Errorf("NormalizeForSpeech(%q) = %q; expected %q", tc.input, result, tc.expected)
		}
	}
}

func TestNormalizeForSpeechIdempotent(t *testing.T) {
	inputs := []string{
		"Main St", "Main St.", "St. Louis Ave", "5th Ave & Pine St", "St&Ave",
		"Dr. Martin Luther King Jr Blvd", "HWY 101", "Pl.Pl.", "a  &  b",
		"Stonewall Ter.", "Rd", "&&", "Circle Cir", "",
	}
	for _, in := range inputs {
		once := NormalizeForSpeech(in)
		twice := NormalizeForSpeech(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestIsUsableCrossStreet(t *testing.T) {
	cases := []struct {
		name    string
		primary string
		want    bool
	}{
		{"Main St & Intersection X", "Main St", false},
		{"Main St & Pine St", "Main St", true},
		{"Pine St", "Main St", true},
		{"", "Main St", false},
		{"Main St", "Main St", false},
		{"Main Street", "Main St", false},
		{"unknown intersection", "Main St", false},
		{"Intersection", "Main St", false},
		{"Intersections La", "Main St", false},
		{"Elm St Intersection", "Main St", false},
		{"Westfield Mall", "Main St", false},
		{"Joe's Restaurant", "Main St", false},
		{"First National BANK", "Main St", false},
		{"Oak Ave", "", true},
		{"Office Depot & Oak Ave", "Main St", true},
		{" & ", "Main St", false},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("run_%d", i), func(t *testing.T) {
			if got := IsUsableCrossStreet(tc.name, tc.primary); got != tc.want {
				t.Errorf("IsUsableCrossStreet(%q, %q) = %v; expected %v", tc.name, tc.primary, got, tc.want)
			}
		})
	}
}

func TestUsableCrossStreetComponent(t *testing.T) {
	part, ok := UsableCrossStreet("Main St & Pine St", "Main St")
	if !ok || part != "Pine St" {
		t.Fatalf("expected Pine St, got %q (%v)", part, ok)
	}
}

func TestPickCrossStreet(t *testing.T) {
	got := PickCrossStreet([]string{"Main St", "City Hospital", "Oak Ave"}, "Main St")
	if got != "Oak Avenue" {
		t.Errorf("expected Oak Avenue, got %q", got)
	}
	if got := PickCrossStreet(nil, "Main St"); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func FuzzNormalizeForSpeech(f *testing.F) {
	for _, seed := range []string{
		"Main St", "St. Louis Ave", "5th Ave & Pine St", "St&Ave", "Pl.Pl.",
		"Dr. Martin Luther King Jr Blvd", "&&", "  a  &  b ", "",
	} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, raw string) {
		once := NormalizeForSpeech(raw)
		if twice := NormalizeForSpeech(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", raw, once, twice)
		}
	})
}

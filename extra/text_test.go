package extra

import (
	"fmt"
	"testing"

	"towertalk/models"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"HONDA747 roger.", "HONDA747 roger."},
		{"**HONDA747** maintain position.", "HONDA747 maintain position."},
		{"<b>HONDA747</b>  say   again", "HONDA747 say again"},
		{"# Main_Street", "MainStreet"},
		{"  Trailing spaces  ", "Trailing spaces"},
		{"", ""},
		{"***", ""},
	}
	for _, test := range tests {
		result := cleanText(test.input)
		if result != test.expected {
			t.Errorf("cleanText(%q) = %q; expected %q", test.input, result, test.expected)
		}
	}
}

func TestCleanTranscript(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: " [BLANK_AUDIO]\n", want: ""},
		{in: "[_BEG_] honda747 ready\n honda747", want: "honda747 ready honda747"},
		{in: "(engine noise) honda747 copy honda747", want: "honda747 copy honda747"},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("run_%d", i), func(t *testing.T) {
			if got := cleanTranscript(tc.in); got != tc.want {
				t.Errorf("cleanTranscript(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("HONDA747 say again. Open and close every transmission with your call sign.")
	if len(got) != 2 {
		t.Fatalf("sentences = %q", got)
	}
	if got[0] != "HONDA747 say again." {
		t.Errorf("first sentence = %q", got[0])
	}
	if got := splitSentences("  "); got != nil {
		t.Errorf("blank text = %q", got)
	}
}

func TestNormalizeTranscript(t *testing.T) {
	cs, err := models.MakeCallSign("Honda", "747")
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		in    string
		want  string
		valid bool
	}{
		{in: "Honda 747, turning left, Honda 747.", want: "Honda747, turning left, Honda747", valid: true},
		{in: "Honda747 turning left Honda747.", want: "Honda747 turning left Honda747", valid: true},
		{in: " [BLANK_AUDIO] Honda 7 4 7 ready, Honda 7-4-7!", want: "Honda747 ready, Honda747", valid: true},
		{in: "Honda, 747.", want: "Honda747", valid: true},
		{in: "...turning left, Honda 747.", want: "turning left, Honda747", valid: false},
		{in: "Where am I?", want: "Where am I", valid: false},
		{in: "", want: "", valid: false},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("run_%d", i), func(t *testing.T) {
			got := normalizeTranscript(tc.in)
			if got != tc.want {
				t.Errorf("normalizeTranscript(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if cs.Brackets(got) != tc.valid {
				t.Errorf("Brackets(%q) = %v, want %v", got, !tc.valid, tc.valid)
			}
		})
	}
}

// Package streets turns geocoder street labels into text fit for speech and
// filters out cross streets that would sound wrong on the radio.
package streets

import (
	"regexp"
	"strings"
)

var (
	spaceRE = regexp.MustCompile(`\s+`)
	// title and upper case forms; the dotted form is consumed with the word
	abbreviations = []struct {
		re   *regexp.Regexp
		full string
	}{
		{abbrevRE("St"), "Street"},
		{abbrevRE("Ave"), "Avenue"},
		{abbrevRE("Rd"), "Road"},
		{abbrevRE("Blvd"), "Boulevard"},
		{abbrevRE("Dr"), "Drive"},
		{abbrevRE("Ln"), "Lane"},
		{abbrevRE("Ct"), "Court"},
		{abbrevRE("Pl"), "Place"},
		{abbrevRE("Pkwy"), "Parkway"},
		{abbrevRE("Cir"), "Circle"},
		{abbrevRE("Ter"), "Terrace"},
		{abbrevRE("Hwy"), "Highway"},
	}
	denyList = []string{
		"unknown intersection",
		"intersection",
		"intersections la",
	}
	poiKeywords = []string{
		"office", "mall", "restaurant", "cafe", "café", "building", "center",
		"centre", "plaza", "shop", "store", "market", "bank", "hospital",
		"clinic", "school", "university", "college", "church", "park",
		"hotel", "station", "airport", "parking", "garage", "gym", "museum",
		"library", "theater", "theatre", "apartments",
	}
)

func abbrevRE(abbr string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:` + abbr + `|` + strings.ToUpper(abbr) + `)\b\.?`)
}

// NormalizeForSpeech expands street abbreviations and replaces "&" with "and".
// Applying it twice gives the same result as applying it once.
func NormalizeForSpeech(raw string) string {
	text := strings.ReplaceAll(raw, "&", " and ")
	for _, a := range abbreviations {
		text = a.re.ReplaceAllString(text, a.full)
	}
	text = spaceRE.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// IsUsableCrossStreet reports whether name can be announced as the cross
// street of primary.
func IsUsableCrossStreet(name, primary string) bool {
	_, ok := UsableCrossStreet(name, primary)
	return ok
}

// UsableCrossStreet returns the first usable component of name. Names joined
// with "&" are split and every trimmed part is tested in order.
func UsableCrossStreet(name, primary string) (string, bool) {
	if strings.Contains(name, "&") {
		for part := range strings.SplitSeq(name, "&") {
			part = strings.TrimSpace(part)
			if usable(part, primary) {
				return part, true
			}
		}
		return "", false
	}
	name = strings.TrimSpace(name)
	if !usable(name, primary) {
		return "", false
	}
	return name, true
}

// PickCrossStreet returns the first usable candidate normalized for speech,
// or an empty string.
func PickCrossStreet(candidates []string, primary string) string {
	for _, c := range candidates {
		if part, ok := UsableCrossStreet(c, primary); ok {
			return NormalizeForSpeech(part)
		}
	}
	return ""
}

func usable(name, primary string) bool {
	if name == "" {
		return false
	}
	if strings.TrimSpace(primary) != "" &&
		strings.EqualFold(NormalizeForSpeech(name), NormalizeForSpeech(primary)) {
		return false
	}
	lower := strings.ToLower(name)
	if strings.Contains(lower, "intersection") {
		return false
	}
	for _, d := range denyList {
		if lower == d {
			return false
		}
	}
	for _, kw := range poiKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}

// Package tower produces the scripted lines the tower speaks.
package tower

import (
	"strings"

	"towertalk/models"
	"towertalk/streets"
)

// Picker chooses a template index in [0, n). *rand.Rand from math/rand/v2
// satisfies it, so a seeded source makes the choice reproducible.
type Picker interface {
	IntN(n int) int
}

var (
	acknowledgements = []string{
		"{cs} roger.",
		"{cs} copy that, continue as filed.",
		"Roger {cs}, maintain current heading.",
		"{cs} read back correct.",
		"Wilco {cs}, monitor this frequency.",
		"{cs} acknowledged, proceed with caution.",
	}
	twoStreetStatus = []string{
		"{cs} you are on {street} approaching {cross}.",
		"{cs} radar contact, {street} near {cross}.",
		"{cs} proceed along {street}, traffic at {cross}.",
		"{cs} position {street} and {cross}, continue.",
	}
	oneStreetStatus = []string{
		"{cs} you are on {street}.",
		"{cs} radar contact on {street}, continue.",
		"{cs} maintain {street}, report next intersection.",
		"{cs} proceed along {street}.",
	}
	correction     = "{cs} say again. Open and close every transmission with your call sign."
	welcomeStreet  = "{cs} approach end of {street} and hold."
	welcomeUnknown = "{cs} maintain position."
	positionWords  = []string{"where", "position", "location", "status"}
)

type Generator struct {
	picker   Picker
	phonetic bool
}

type Option func(*Generator)

// WithPhoneticDigits makes Spoken read plate digits one by one.
func WithPhoneticDigits(on bool) Option {
	return func(g *Generator) {
		g.phonetic = on
	}
}

func NewGenerator(picker Picker, opts ...Option) *Generator {
	g := &Generator{picker: picker}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func fill(tmpl string, cs models.CallSign, street, cross string) string {
	return strings.NewReplacer(
		"{cs}", cs.String(),
		"{street}", street,
		"{cross}", cross,
	).Replace(tmpl)
}

func (g *Generator) pick(templates []string) string {
	if g.picker == nil || len(templates) == 1 {
		return templates[0]
	}
	i := g.picker.IntN(len(templates))
	if i < 0 || i >= len(templates) {
		i = 0
	}
	return templates[i]
}

// Welcome never mentions the cross street.
func (g *Generator) Welcome(cs models.CallSign, street string) string {
	street = strings.TrimSpace(street)
	if street == "" {
		return fill(welcomeUnknown, cs, "", "")
	}
	return fill(welcomeStreet, cs, streets.NormalizeForSpeech(street), "")
}

func (g *Generator) Acknowledge(cs models.CallSign) string {
	return fill(g.pick(acknowledgements), cs, "", "")
}

func (g *Generator) Correction(cs models.CallSign) string {
	return fill(correction, cs, "", "")
}

// LocationStatus uses the two street templates only when cross passes the
// cross street filter.
func (g *Generator) LocationStatus(cs models.CallSign, street, cross string) string {
	street = strings.TrimSpace(street)
	if street == "" {
		street = models.UnknownStreet
	}
	if part, ok := streets.UsableCrossStreet(cross, street); ok && street != models.UnknownStreet {
		return fill(g.pick(twoStreetStatus), cs, streets.NormalizeForSpeech(street), streets.NormalizeForSpeech(part))
	}
	return fill(g.pick(oneStreetStatus), cs, streets.NormalizeForSpeech(street), "")
}

// Spoken renders text for the synthesiser.
func (g *Generator) Spoken(text string, cs models.CallSign) string {
	if !g.phonetic || cs.IsZero() {
		return text
	}
	return strings.ReplaceAll(text, cs.String(), cs.Spoken())
}

// AsksForPosition reports whether the driver asked where they are.
func AsksForPosition(transcript string) bool {
	lower := strings.ToLower(transcript)
	for _, w := range positionWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// Acknowledgements lists every acknowledgement line for cs.
func Acknowledgements(cs models.CallSign) []string {
	out := make([]string, 0, len(acknowledgements))
	for _, tmpl := range acknowledgements {
		out = append(out, fill(tmpl, cs, "", ""))
	}
	return out
}

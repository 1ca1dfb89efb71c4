package page

import (
	"fmt"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Treatment is the visual container a section is wrapped in.
type Treatment int

const (
	TreatmentPlain Treatment = iota
	TreatmentTinted
	TreatmentBordered
	TreatmentGradient
)

var treatmentNames = map[Treatment]string{
	TreatmentPlain:    "plain",
	TreatmentTinted:   "tinted",
	TreatmentBordered: "bordered",
	TreatmentGradient: "gradient",
}

func (t Treatment) String() string {
	if name, ok := treatmentNames[t]; ok {
		return name
	}
	return "plain"
}

// Class returns the container CSS class.
func (t Treatment) Class() string { return "section--" + t.String() }

// ParseTreatment maps a name to a Treatment. Empty means plain.
func ParseTreatment(s string) (Treatment, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TreatmentPlain, nil
	}
	for t, name := range treatmentNames {
		if name == s {
			return t, nil
		}
	}
	return TreatmentPlain, fmt.Errorf("page: unknown treatment %q", s)
}

// UnmarshalYAML decodes a treatment name.
func (t *Treatment) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseTreatment(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Kind names a section component.
type Kind string

const (
	KindHero         Kind = "hero"
	KindBenefits     Kind = "benefits"
	KindProcess      Kind = "process"
	KindTreatments   Kind = "treatments"
	KindPricing      Kind = "pricing"
	KindBeforeAfter  Kind = "beforeafter"
	KindTestimonials Kind = "testimonials"
	KindFAQ          Kind = "faq"
	KindContact      Kind = "contact"
	KindAppointment  Kind = "appointment"
	KindMap          Kind = "map"
	KindCTA          Kind = "cta"
	KindMarkdown     Kind = "markdown"
)

var knownKinds = map[Kind]struct{}{
	KindHero: {}, KindBenefits: {}, KindProcess: {}, KindTreatments: {},
	KindPricing: {}, KindBeforeAfter: {}, KindTestimonials: {}, KindFAQ: {},
	KindContact: {}, KindAppointment: {}, KindMap: {}, KindCTA: {}, KindMarkdown: {},
}

// Valid reports whether k is a known section kind.
func (k Kind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

// Template is the name of the template rendering the section body.
func (k Kind) Template() string { return "section-" + string(k) }

// VisibilityFlag latches true the first time a section enters the viewport.
type VisibilityFlag struct {
	revealed atomic.Bool
}

// Reveal sets the flag and reports whether this call flipped it.
func (v *VisibilityFlag) Reveal() bool {
	return v.revealed.CompareAndSwap(false, true)
}

// Revealed reports the flag. There is no way back to false.
func (v *VisibilityFlag) Revealed() bool { return v.revealed.Load() }

package handlers

import (
	"net/url"
	"strconv"
	"time"

	"github.com/manuwestern/dionwebsite/internal/carousel"
	"github.com/manuwestern/dionwebsite/internal/content"
	"github.com/manuwestern/dionwebsite/internal/format"
	"github.com/manuwestern/dionwebsite/internal/forms"
	"github.com/manuwestern/dionwebsite/internal/mapview"
	"github.com/manuwestern/dionwebsite/internal/slider"
)

// SliderView renders the before/after comparison.
type SliderView struct {
	Cases      []content.Case
	Case       content.Case
	Index      int
	Position   float64
	Layers     slider.Layers
	Dots       []carousel.Dot
	Controlled bool
	Autoplay   bool
	IntervalMS int64
}

// BuildSlider snapshots s over cases.
func BuildSlider(cases []content.Case, s *slider.Slider, interval time.Duration) SliderView {
	c := s.Carousel()
	v := SliderView{
		Cases:      cases,
		Index:      s.Case(),
		Position:   s.Position(),
		Layers:     s.Layers(),
		Dots:       c.Dots(),
		Controlled: s.Controlled(),
		Autoplay:   c.AutoplayActive() && len(cases) > 1,
		IntervalMS: interval.Milliseconds(),
	}
	if v.Index < len(cases) {
		v.Case = cases[v.Index]
	}
	return v
}

func (v SliderView) url(action string, extra url.Values) string {
	q := url.Values{}
	q.Set("case", strconv.Itoa(v.Index))
	q.Set("pos", strconv.FormatFloat(v.Position, 'f', -1, 64))
	q.Set("action", action)
	if v.Controlled {
		q.Set("manual", "1")
	}
	for k, vals := range extra {
		q[k] = vals
	}
	return "/fragments/before-after?" + q.Encode()
}

// SelectURL picks case i.
func (v SliderView) SelectURL(i int) string {
	return v.url("select", url.Values{"to": {strconv.Itoa(i)}, "manual": {"1"}})
}

func (v SliderView) NextURL() string { return v.url("next", url.Values{"manual": {"1"}}) }

func (v SliderView) PrevURL() string { return v.url("prev", url.Values{"manual": {"1"}}) }

// ControlURL is the base for the range input; htmx appends value=.
func (v SliderView) ControlURL() string { return v.url("control", nil) }

// DragURL is the base for pointer releases; the client appends x, left and width.
func (v SliderView) DragURL() string { return v.url("drag", nil) }

func (v SliderView) TickURL() string { return v.url("tick", nil) }

// PricingView lists packages with formatted prices.
type PricingView struct {
	Note     string
	Packages []PackageView
}

type PackageView struct {
	content.Package
	PriceLabel string
}

// BuildPricing formats every package for lang.
func BuildPricing(p content.Pricing, lang string) PricingView {
	v := PricingView{Note: p.Note, Packages: make([]PackageView, 0, len(p.Packages))}
	for _, pkg := range p.Packages {
		v.Packages = append(v.Packages, PackageView{Package: pkg, PriceLabel: format.Price(pkg.Price, p.Currency, lang)})
	}
	return v
}

// TreatmentCard is a treatment summary with its formatted starting price.
type TreatmentCard struct {
	content.Treatment
	PriceLabel string
	Href       string
}

// BuildTreatmentCards formats treatment summaries for lang.
func BuildTreatmentCards(items []content.Treatment, currency, lang string) []TreatmentCard {
	out := make([]TreatmentCard, 0, len(items))
	for _, t := range items {
		card := TreatmentCard{Treatment: t, Href: "/treatments/" + t.Slug}
		if t.PriceFrom > 0 {
			card.PriceLabel = format.Price(t.PriceFrom, currency, lang)
		}
		out = append(out, card)
	}
	return out
}

// FieldView is one input of a rendered form.
type FieldView struct {
	forms.Field
	ID       string
	LabelKey string
	Value    string
	Checked  bool
	Invalid  bool
}

// OptionKey is the translation key of a select option.
func (f FieldView) OptionKey(opt string) string { return "forms.field." + f.Name + "." + opt }

// FormView renders a contact or appointment form from instance state.
type FormView struct {
	Kind      forms.Kind
	Action    string
	CSRFToken string
	Fields    []FieldView
	Status    forms.Status
	// ResetAfterMS is set after success so the fragment refreshes once the
	// draft has been reset.
	ResetAfterMS int64
}

// BuildForm renders snap. missing marks fields that failed validation.
func BuildForm(snap forms.Snapshot, csrf string, missing []string, resetDelay time.Duration) FormView {
	invalid := make(map[string]bool, len(missing))
	for _, m := range missing {
		invalid[m] = true
	}
	kind := snap.Definition.Kind
	v := FormView{
		Kind:      kind,
		Action:    "/forms/" + string(kind),
		CSRFToken: csrf,
		Status:    snap.Status,
		Fields:    make([]FieldView, 0, len(snap.Definition.Fields)),
	}
	for _, f := range snap.Definition.Fields {
		v.Fields = append(v.Fields, FieldView{
			Field:    f,
			ID:       string(kind) + "-" + f.Name,
			LabelKey: "forms.field." + f.Name,
			Value:    snap.Draft.Value(f.Name),
			Checked:  snap.Draft.Checked(f.Name),
			Invalid:  invalid[f.Name],
		})
	}
	if snap.Status.IsSucceeded() {
		v.ResetAfterMS = resetDelay.Milliseconds()
	}
	return v
}

// MapView is the map section model.
type MapView struct {
	Widget  mapview.Widget
	Address string
	Clinic  content.Clinic
}

// BuildMap places the clinic on the widget.
func BuildMap(w mapview.Widget, clinic content.Clinic) MapView {
	return MapView{Widget: w, Address: mapview.AddressLine(clinic), Clinic: clinic}
}

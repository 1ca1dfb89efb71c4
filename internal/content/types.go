package content

import (
	"html/template"
	"time"
)

// Bundle is the structured content of one locale.
type Bundle struct {
	Lang         string        `yaml:"-"`
	Clinic       Clinic        `yaml:"clinic"`
	HeroSlides   []HeroSlide   `yaml:"hero"`
	Benefits     []Benefit     `yaml:"benefits"`
	Process      []Step        `yaml:"process"`
	Testimonials []Testimonial `yaml:"testimonials"`
	FAQ          []FAQEntry    `yaml:"faq"`
	Pricing      Pricing       `yaml:"pricing"`
	Cases        []Case        `yaml:"cases"`
	Treatments   []Treatment   `yaml:"treatments"`
	Cities       []City        `yaml:"cities"`
	Promo        Promo         `yaml:"promo"`
	CTA          CTA           `yaml:"cta"`
}

// Clinic holds contact and location details.
type Clinic struct {
	Name         string   `yaml:"name"`
	LegalName    string   `yaml:"legal_name"`
	Phone        string   `yaml:"phone"`
	WhatsApp     string   `yaml:"whatsapp"`
	Email        string   `yaml:"email"`
	Street       string   `yaml:"street"`
	PostalCode   string   `yaml:"postal_code"`
	City         string   `yaml:"city"`
	Country      string   `yaml:"country"`
	OpeningHours []string `yaml:"opening_hours"`
	Logo         string   `yaml:"logo"`
	SameAs       []string `yaml:"same_as"`
}

// HeroSlide is one frame of the hero rotator.
type HeroSlide struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
	Image    string `yaml:"image"`
	Alt      string `yaml:"alt"`
	CTALabel string `yaml:"cta_label"`
	CTAHref  string `yaml:"cta_href"`
}

type Benefit struct {
	Icon  string `yaml:"icon"`
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

type Step struct {
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

type Testimonial struct {
	Name      string `yaml:"name"`
	Origin    string `yaml:"origin"`
	Rating    int    `yaml:"rating"`
	Quote     string `yaml:"quote"`
	Treatment string `yaml:"treatment"`
}

type FAQEntry struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// Pricing lists packages in one currency.
type Pricing struct {
	Currency string    `yaml:"currency"`
	Note     string    `yaml:"note"`
	Packages []Package `yaml:"packages"`
}

type Package struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Price     int64    `yaml:"price"`
	Grafts    string   `yaml:"grafts"`
	Features  []string `yaml:"features"`
	Highlight bool     `yaml:"highlight"`
}

// Case is one before/after pair.
type Case struct {
	ID        string `yaml:"id"`
	Title     string `yaml:"title"`
	Grafts    int    `yaml:"grafts"`
	Months    int    `yaml:"months"`
	Before    string `yaml:"before"`
	After     string `yaml:"after"`
	BeforeAlt string `yaml:"before_alt"`
	AfterAlt  string `yaml:"after_alt"`
}

// Treatment is the summary card of a treatment; details live in markdown.
type Treatment struct {
	Slug      string `yaml:"slug"`
	Title     string `yaml:"title"`
	Summary   string `yaml:"summary"`
	Image     string `yaml:"image"`
	Duration  string `yaml:"duration"`
	PriceFrom int64  `yaml:"price_from"`
}

// City is a landing variant for visitors from a given city.
type City struct {
	Slug         string `yaml:"slug"`
	Name         string `yaml:"name"`
	HeroTitle    string `yaml:"hero_title"`
	HeroSubtitle string `yaml:"hero_subtitle"`
	TravelNote   string `yaml:"travel_note"`
}

// Promo is the delayed promotional popup.
type Promo struct {
	Title    string   `yaml:"title"`
	Text     string   `yaml:"text"`
	CTALabel string   `yaml:"cta_label"`
	CTAHref  string   `yaml:"cta_href"`
	Routes   []string `yaml:"routes"`
}

type CTA struct {
	Title    string `yaml:"title"`
	Text     string `yaml:"text"`
	CTALabel string `yaml:"cta_label"`
	CTAHref  string `yaml:"cta_href"`
}

// TreatmentBySlug finds a treatment card.
func (b *Bundle) TreatmentBySlug(slug string) (Treatment, bool) {
	for _, t := range b.Treatments {
		if t.Slug == slug {
			return t, true
		}
	}
	return Treatment{}, false
}

// CityBySlug finds a city landing variant.
func (b *Bundle) CityBySlug(slug string) (City, bool) {
	for _, c := range b.Cities {
		if c.Slug == slug {
			return c, true
		}
	}
	return City{}, false
}

// Page is a localized markdown document.
type Page struct {
	Kind      string
	Slug      string
	Lang      string
	Title     string
	Summary   string
	Image     string
	HTML      template.HTML
	Excerpt   string
	UpdatedAt time.Time
	SEO       PageSEO
}

// PageSEO holds optional metadata overrides.
type PageSEO struct {
	Title       string
	Description string
	OGImage     string
}

// Description prefers the SEO override, then the summary, then the excerpt.
func (p Page) Description() string {
	switch {
	case p.SEO.Description != "":
		return p.SEO.Description
	case p.Summary != "":
		return p.Summary
	default:
		return p.Excerpt
	}
}

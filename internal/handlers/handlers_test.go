package handlers

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manuwestern/dionwebsite/internal/carousel"
	"github.com/manuwestern/dionwebsite/internal/content"
	"github.com/manuwestern/dionwebsite/internal/forms"
	"github.com/manuwestern/dionwebsite/internal/slider"
)

func TestBuildHeroCityVariant(t *testing.T) {
	slides := []content.HeroSlide{{Title: "Neue Haare"}, {Title: "Zweite"}}
	c, err := carousel.New(len(slides), carousel.AutoplayAlways)
	require.NoError(t, err)

	city := &content.City{Slug: "hamburg", HeroTitle: "Haartransplantation für Hamburg"}
	v := BuildHero(slides, city, c, 6*time.Second)
	require.Equal(t, "Haartransplantation für Hamburg", v.Active.Title)
	require.Equal(t, "Neue Haare", slides[0].Title, "shared slides are not mutated")
	require.True(t, v.Carousel.Autoplay)
	require.Contains(t, v.StreamURL, "city=hamburg")
	require.Equal(t, int64(6000), v.Carousel.IntervalMS)
}

func TestCarouselViewURLs(t *testing.T) {
	c, err := carousel.New(3, carousel.AutoplayUntilInteraction, carousel.WithIndex(2))
	require.NoError(t, err)
	v := NewCarouselView(CarouselTestimonials, c, time.Second)

	next, err := url.Parse(v.NextURL())
	require.NoError(t, err)
	require.Equal(t, "/fragments/carousel/testimonials", next.Path)
	require.Equal(t, "next", next.Query().Get("action"))
	require.Equal(t, "1", next.Query().Get("manual"))

	tick, err := url.Parse(v.TickURL())
	require.NoError(t, err)
	require.Empty(t, tick.Query().Get("manual"))

	c.Next()
	require.False(t, NewCarouselView(CarouselTestimonials, c, time.Second).Autoplay)
}

func TestBuildSliderAndURLs(t *testing.T) {
	cases := []content.Case{{ID: "a"}, {ID: "b"}}
	s, err := slider.Restore(len(cases), 1, 30, false)
	require.NoError(t, err)

	v := BuildSlider(cases, s, 8*time.Second)
	require.Equal(t, "b", v.Case.ID)
	require.Equal(t, 30.0, v.Layers.ClipPercent)
	require.True(t, v.Autoplay)

	sel, err := url.Parse(v.SelectURL(0))
	require.NoError(t, err)
	require.Equal(t, "select", sel.Query().Get("action"))
	require.Equal(t, "0", sel.Query().Get("to"))
	require.Equal(t, "1", sel.Query().Get("case"))
}

func TestBuildFormMarksInvalid(t *testing.T) {
	f, err := forms.New(forms.KindContact, nil)
	require.NoError(t, err)
	f.Update(map[string][]string{"name": {"Ada"}})

	v := BuildForm(f.Snapshot(), "tok", []string{"email"}, 5*time.Second)
	require.Equal(t, "/forms/contact", v.Action)
	require.Equal(t, "tok", v.CSRFToken)
	require.Zero(t, v.ResetAfterMS)
	for _, field := range v.Fields {
		switch field.Name {
		case "name":
			require.Equal(t, "Ada", field.Value)
			require.False(t, field.Invalid)
		case "email":
			require.True(t, field.Invalid)
			require.Equal(t, "contact-email", field.ID)
		}
	}
}

func TestBuildPricingAndCards(t *testing.T) {
	p := BuildPricing(content.Pricing{Currency: "EUR", Packages: []content.Package{{ID: "basic", Price: 2490}}}, "de")
	require.Equal(t, "2.490\u00a0€", p.Packages[0].PriceLabel)

	cards := BuildTreatmentCards([]content.Treatment{{Slug: "fue", PriceFrom: 1990}, {Slug: "prp"}}, "EUR", "en")
	require.Equal(t, "/treatments/fue", cards[0].Href)
	require.Equal(t, "€1,990", cards[0].PriceLabel)
	require.Empty(t, cards[1].PriceLabel)
}

func TestSEOAddJSONLD(t *testing.T) {
	var s SEOData
	s.AddJSONLD(map[string]any{"@type": "WebSite"})
	s.AddJSONLD(func() {})
	require.Len(t, s.JSONLD, 1)
	require.Contains(t, string(s.JSONLD[0]), "WebSite")
}

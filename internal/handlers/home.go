package handlers

import (
	"net/url"
	"strconv"
	"time"

	"github.com/manuwestern/dionwebsite/internal/carousel"
	"github.com/manuwestern/dionwebsite/internal/content"
)

// Carousel names used in fragment URLs.
const (
	CarouselHero         = "hero"
	CarouselTestimonials = "testimonials"
	CarouselFAQ          = "faq"
)

// CarouselView is the render state of one carousel fragment. Autoplay is true
// while the fragment should keep polling for the next tick.
type CarouselView struct {
	Name       string
	Index      int
	Count      int
	Dots       []carousel.Dot
	Controlled bool
	Autoplay   bool
	IntervalMS int64
	// Variant carries the hero city slug across fragment requests.
	Variant string
}

// NewCarouselView snapshots c for rendering.
func NewCarouselView(name string, c *carousel.Carousel, interval time.Duration) CarouselView {
	return CarouselView{
		Name:       name,
		Index:      c.Index(),
		Count:      c.Count(),
		Dots:       c.Dots(),
		Controlled: c.Controlled(),
		Autoplay:   c.AutoplayActive() && c.Count() > 1,
		IntervalMS: interval.Milliseconds(),
	}
}

func (v CarouselView) url(action string, i int, manual bool) string {
	q := url.Values{}
	q.Set("i", strconv.Itoa(i))
	q.Set("action", action)
	if manual {
		q.Set("manual", "1")
	}
	if v.Variant != "" {
		q.Set("city", v.Variant)
	}
	return "/fragments/carousel/" + v.Name + "?" + q.Encode()
}

// NextURL, PrevURL and GoToURL are manual moves; they latch control.
func (v CarouselView) NextURL() string { return v.url("next", v.Index, true) }

func (v CarouselView) PrevURL() string { return v.url("prev", v.Index, true) }

func (v CarouselView) GoToURL(i int) string { return v.url("goto", i, true) }

// TickURL is polled while autoplay is active.
func (v CarouselView) TickURL() string { return v.url("tick", v.Index, v.Controlled) }

// HeroView renders the hero rotator.
type HeroView struct {
	Carousel CarouselView
	Slides   []content.HeroSlide
	Active   content.HeroSlide
	// StreamURL feeds slide changes over server-sent events.
	StreamURL string
}

// BuildHero prepares the hero. A city variant replaces the copy of the first
// slide so landing pages keep the shared imagery.
func BuildHero(slides []content.HeroSlide, city *content.City, c *carousel.Carousel, interval time.Duration) HeroView {
	if city != nil && len(slides) > 0 {
		cp := make([]content.HeroSlide, len(slides))
		copy(cp, slides)
		if city.HeroTitle != "" {
			cp[0].Title = city.HeroTitle
		}
		if city.HeroSubtitle != "" {
			cp[0].Subtitle = city.HeroSubtitle
		}
		slides = cp
	}
	v := HeroView{
		Carousel: NewCarouselView(CarouselHero, c, interval),
		Slides:   slides,
	}
	if city != nil {
		v.Carousel.Variant = city.Slug
	}
	if len(slides) > 0 {
		v.Active = slides[v.Carousel.Index]
	}
	q := url.Values{}
	q.Set("i", strconv.Itoa(v.Carousel.Index))
	if city != nil {
		q.Set("city", city.Slug)
	}
	v.StreamURL = "/stream/carousel/hero?" + q.Encode()
	return v
}

// TestimonialsView renders the review carousel.
type TestimonialsView struct {
	Carousel CarouselView
	Items    []content.Testimonial
	Active   content.Testimonial
}

// BuildTestimonials prepares the review carousel.
func BuildTestimonials(items []content.Testimonial, c *carousel.Carousel, interval time.Duration) TestimonialsView {
	v := TestimonialsView{Carousel: NewCarouselView(CarouselTestimonials, c, interval), Items: items}
	if len(items) > 0 {
		v.Active = items[v.Carousel.Index]
	}
	return v
}

// Stars expands a rating into a fixed five-slot row.
func (TestimonialsView) Stars(rating int) []bool {
	out := make([]bool, 5)
	for i := range out {
		out[i] = i < rating
	}
	return out
}

// FAQView highlights one open question at a time.
type FAQView struct {
	Carousel CarouselView
	Items    []content.FAQEntry
}

// BuildFAQ prepares the rotating FAQ.
func BuildFAQ(items []content.FAQEntry, c *carousel.Carousel, interval time.Duration) FAQView {
	return FAQView{Carousel: NewCarouselView(CarouselFAQ, c, interval), Items: items}
}

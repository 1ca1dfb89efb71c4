package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/manuwestern/dionwebsite/internal/carousel"
	"github.com/manuwestern/dionwebsite/internal/content"
	"github.com/manuwestern/dionwebsite/internal/forms"
	"github.com/manuwestern/dionwebsite/internal/handlers"
	mw "github.com/manuwestern/dionwebsite/internal/middleware"
	"github.com/manuwestern/dionwebsite/internal/mapview"
	"github.com/manuwestern/dionwebsite/internal/page"
	"github.com/manuwestern/dionwebsite/internal/slider"
)

// resolver maps section kinds onto view models built from bundle. Sections
// whose content is empty report ok=false and are omitted by the composer.
func (a *app) resolver(r *http.Request, bundle *content.Bundle, lang string, city *content.City) page.Resolver {
	return func(ctx context.Context, spec page.Spec) (any, bool, error) {
		switch spec.Kind {
		case page.KindHero:
			if len(bundle.HeroSlides) == 0 {
				return nil, false, nil
			}
			c, err := carousel.New(len(bundle.HeroSlides), carousel.AutoplayAlways)
			if err != nil {
				return nil, false, err
			}
			return handlers.BuildHero(bundle.HeroSlides, city, c, a.cfg.Carousel.HeroInterval), true, nil

		case page.KindBenefits:
			return bundle.Benefits, len(bundle.Benefits) > 0, nil

		case page.KindProcess:
			return bundle.Process, len(bundle.Process) > 0, nil

		case page.KindTreatments:
			cards := handlers.BuildTreatmentCards(bundle.Treatments, bundle.Pricing.Currency, lang)
			return cards, len(cards) > 0, nil

		case page.KindPricing:
			if len(bundle.Pricing.Packages) == 0 {
				return nil, false, nil
			}
			return handlers.BuildPricing(bundle.Pricing, lang), true, nil

		case page.KindBeforeAfter:
			if len(bundle.Cases) == 0 {
				return nil, false, nil
			}
			s, err := slider.New(len(bundle.Cases))
			if err != nil {
				return nil, false, err
			}
			return handlers.BuildSlider(bundle.Cases, s, a.cfg.Carousel.CaseInterval), true, nil

		case page.KindTestimonials:
			if len(bundle.Testimonials) == 0 {
				return nil, false, nil
			}
			c, err := carousel.New(len(bundle.Testimonials), carousel.AutoplayUntilInteraction)
			if err != nil {
				return nil, false, err
			}
			return handlers.BuildTestimonials(bundle.Testimonials, c, a.cfg.Carousel.ReviewInterval), true, nil

		case page.KindFAQ:
			if len(bundle.FAQ) == 0 {
				return nil, false, nil
			}
			c, err := carousel.New(len(bundle.FAQ), carousel.AutoplayUntilInteraction)
			if err != nil {
				return nil, false, err
			}
			return handlers.BuildFAQ(bundle.FAQ, c, a.cfg.Carousel.FAQInterval), true, nil

		case page.KindContact, page.KindAppointment:
			kind := forms.KindContact
			if spec.Kind == page.KindAppointment {
				kind = forms.KindAppointment
			}
			f, err := a.forms.Get(mw.GetSession(r).ID, kind)
			if err != nil {
				return nil, false, err
			}
			return handlers.BuildForm(f.Snapshot(), mw.CSRFToken(r), nil, a.cfg.Webhook.ResetDelay), true, nil

		case page.KindMap:
			if bundle.Clinic.Name == "" {
				return nil, false, nil
			}
			return handlers.BuildMap(mapview.New(a.cfg.Map, bundle.Clinic), bundle.Clinic), true, nil

		case page.KindCTA:
			return bundle.CTA, bundle.CTA.Title != "", nil

		case page.KindMarkdown:
			doc, err := a.content.Page(ctx, content.KindPages, spec.Slug, lang)
			if errors.Is(err, content.ErrNotFound) {
				return nil, false, nil
			}
			if err != nil {
				return nil, false, err
			}
			return doc, true, nil
		}
		return nil, false, nil
	}
}

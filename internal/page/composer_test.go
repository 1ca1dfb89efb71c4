package page

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const layoutsYAML = `
home:
  - kind: hero
  - kind: benefits
    treatment: tinted
  - kind: testimonials
    treatment: gradient
  - kind: faq
    treatment: bordered
  - kind: faq
legal:
  - kind: markdown
    slug: privacy
`

func TestParseLayouts(t *testing.T) {
	l, err := ParseLayouts([]byte(layoutsYAML))
	require.NoError(t, err)
	require.Equal(t, []string{"home", "legal"}, l.Routes())
	require.Equal(t, TreatmentTinted, l["home"][1].Treatment)
	require.Equal(t, TreatmentPlain, l["home"][0].Treatment)
}

func TestParseLayoutsRejectsInvalid(t *testing.T) {
	_, err := ParseLayouts([]byte("home:\n  - kind: carousel3d\n"))
	require.Error(t, err)
	_, err = ParseLayouts([]byte("home:\n  - kind: hero\n    treatment: neon\n"))
	require.Error(t, err)
	_, err = ParseLayouts([]byte("legal:\n  - kind: markdown\n"))
	require.Error(t, err)
}

func TestComposeOmitsMissingContent(t *testing.T) {
	l, err := ParseLayouts([]byte(layoutsYAML))
	require.NoError(t, err)

	comp, err := l.Compose(context.Background(), "home", func(_ context.Context, s Spec) (any, bool, error) {
		if s.Kind == KindTestimonials {
			return nil, false, nil
		}
		return string(s.Kind) + "-data", true, nil
	})
	require.NoError(t, err)
	require.Len(t, comp.Sections, 4)
	require.Equal(t, []Kind{KindTestimonials}, comp.Omitted)
	require.False(t, comp.Has(KindTestimonials))

	require.Equal(t, "hero", comp.Sections[0].ID)
	require.Equal(t, "faq", comp.Sections[2].ID)
	require.Equal(t, "faq-2", comp.Sections[3].ID)
	require.Equal(t, 2, comp.Sections[2].Index)
	require.Equal(t, "section section--bordered", comp.Sections[2].Class())
	require.Equal(t, "benefits-data", comp.Sections[1].Data)

	require.True(t, comp.Sections[0].Visibility.Revealed())
	require.False(t, comp.Sections[1].Visibility.Revealed())
}

func TestComposeErrors(t *testing.T) {
	l, err := ParseLayouts([]byte(layoutsYAML))
	require.NoError(t, err)

	_, err = l.Compose(context.Background(), "nowhere", nil)
	require.ErrorIs(t, err, ErrUnknownRoute)

	boom := errors.New("boom")
	_, err = l.Compose(context.Background(), "legal", func(context.Context, Spec) (any, bool, error) {
		return nil, false, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestVisibilityFlagLatches(t *testing.T) {
	var v VisibilityFlag
	require.False(t, v.Revealed())

	var wg sync.WaitGroup
	var mu sync.Mutex
	flips := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v.Reveal() {
				mu.Lock()
				flips++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, flips)
	require.True(t, v.Revealed())
	require.False(t, v.Reveal())
	require.True(t, v.Revealed())
}

func TestTreatmentNames(t *testing.T) {
	for _, name := range []string{"plain", "tinted", "bordered", "gradient"} {
		tr, err := ParseTreatment(name)
		require.NoError(t, err)
		require.Equal(t, name, tr.String())
	}
	require.Equal(t, "section--plain", Treatment(42).Class())
}

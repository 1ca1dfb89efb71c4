package content

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const deBundle = `
clinic:
  name: Dion Clinic
  phone: "+49 30 000000"
hero:
  - title: Volles Haar
    image: /assets/img/hero-1.jpg
benefits:
  - title: Erfahrung
process:
  - title: Beratung
testimonials:
  - name: Murat
    quote: Top
faq:
  - question: Tut es weh?
    answer: Nein.
pricing:
  currency: EUR
  packages:
    - id: fue
      name: FUE
      price: 2490
cases:
  - id: c1
    before: /b1.jpg
    after: /a1.jpg
treatments:
  - slug: fue
    title: FUE
`

const enBundle = `
clinic:
  name: Dion Clinic
hero:
  - title: Full hair
faq:
  - question: Does it hurt?
    answer: No.
`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data", "de.yaml"), deBundle)
	writeFile(t, filepath.Join(dir, "data", "en.yaml"), enBundle)
	writeFile(t, filepath.Join(dir, "treatments", "de", "fue.md"), "---\ntitle: FUE-Methode\nsummary: Einzelentnahme\n---\n# FUE\n\nDie **Follicular Unit Extraction** <script>alert(1)</script>entnimmt Grafts einzeln.\n")
	writeFile(t, filepath.Join(dir, "pages", "de", "privacy.md"), "# Datenschutz\n\nText.\n")
	writeFile(t, filepath.Join(dir, "pages", "en", "privacy.md"), "---\ntitle: Privacy\n---\nPrivacy text.\n")
	return dir
}

func TestBundleMergesFallbackSections(t *testing.T) {
	p := NewProvider(fixture(t), "de")
	b, err := p.Bundle(context.Background(), "en-GB")
	require.NoError(t, err)
	require.Equal(t, "en", b.Lang)
	require.Equal(t, "Full hair", b.HeroSlides[0].Title)
	require.Equal(t, "Does it hurt?", b.FAQ[0].Question)
	require.Len(t, b.Cases, 1, "cases should come from de")
	require.Equal(t, int64(2490), b.Pricing.Packages[0].Price)
}

func TestBundleWithoutLocaleFileUsesFallback(t *testing.T) {
	p := NewProvider(fixture(t), "de")
	b, err := p.Bundle(context.Background(), "tr")
	require.NoError(t, err)
	require.Equal(t, "tr", b.Lang)
	require.Equal(t, "Volles Haar", b.HeroSlides[0].Title)
}

func TestBundleMissingFallbackIsNotFound(t *testing.T) {
	p := NewProvider(t.TempDir(), "de")
	_, err := p.Bundle(context.Background(), "de")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBundleCacheExpires(t *testing.T) {
	dir := fixture(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewProvider(dir, "de", WithCacheTTL(time.Minute), WithNow(func() time.Time { return now }))

	b, err := p.Bundle(context.Background(), "de")
	require.NoError(t, err)
	require.Equal(t, "Volles Haar", b.HeroSlides[0].Title)

	writeFile(t, filepath.Join(dir, "data", "de.yaml"), strings.Replace(deBundle, "Volles Haar", "Neues Haar", 1))
	b, err = p.Bundle(context.Background(), "de")
	require.NoError(t, err)
	require.Equal(t, "Volles Haar", b.HeroSlides[0].Title, "cached value expected")

	now = now.Add(2 * time.Minute)
	b, err = p.Bundle(context.Background(), "de")
	require.NoError(t, err)
	require.Equal(t, "Neues Haar", b.HeroSlides[0].Title)
}

func TestPageRendersAndSanitises(t *testing.T) {
	p := NewProvider(fixture(t), "de")
	page, err := p.Page(context.Background(), KindTreatments, "fue", "de")
	require.NoError(t, err)
	require.Equal(t, "FUE-Methode", page.Title)
	require.Contains(t, string(page.HTML), "<strong>Follicular Unit Extraction</strong>")
	require.NotContains(t, string(page.HTML), "<script")
	require.Equal(t, "Einzelentnahme", page.Description())
	require.True(t, strings.HasPrefix(page.Excerpt, "FUE Die Follicular Unit Extraction"))
}

func TestPageFallsBackAndRejectsTraversal(t *testing.T) {
	p := NewProvider(fixture(t), "de")

	page, err := p.Page(context.Background(), KindTreatments, "fue", "en")
	require.NoError(t, err)
	require.Equal(t, "de", page.Lang)

	en, err := p.Page(context.Background(), KindPages, "privacy", "en")
	require.NoError(t, err)
	require.Equal(t, "Privacy", en.Title)

	de, err := p.Page(context.Background(), KindPages, "privacy", "de")
	require.NoError(t, err)
	require.Equal(t, "Privacy", de.Title, "title derived from slug")
	require.Equal(t, "Privacy text.", en.Excerpt)
	require.Equal(t, "Datenschutz Text.", de.Excerpt)

	_, err = p.Page(context.Background(), KindPages, "../data/de", "de")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = p.Page(context.Background(), KindPages, "imprint", "de")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExcerptTruncatesOnWordBoundary(t *testing.T) {
	got := Excerpt("<p>"+strings.Repeat("haar ", 60)+"</p>", 40)
	require.LessOrEqual(t, len([]rune(got)), 41)
	require.True(t, strings.HasSuffix(got, "…"))
	require.NotContains(t, got, "haa…")
}

func TestAuditReportsGaps(t *testing.T) {
	p := NewProvider(fixture(t), "de")
	problems := p.Audit(context.Background(), []string{"de", "en", "tr"})

	var subjects []string
	for _, pr := range problems {
		subjects = append(subjects, pr.Lang+":"+pr.Subject)
	}
	require.Contains(t, subjects, "tr:data/tr.yaml")
	require.Contains(t, subjects, "en:treatments/fue")
	require.NotContains(t, subjects, "de:treatments/fue")
	require.NotContains(t, subjects, "en:pages/privacy")
}

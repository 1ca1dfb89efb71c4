package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/manuwestern/dionwebsite/internal/forms"
	mw "github.com/manuwestern/dionwebsite/internal/middleware"
	"github.com/manuwestern/dionwebsite/internal/platform/config"
)

const (
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148"
)

// fakeSender records webhook payloads instead of posting them.
type fakeSender struct {
	mu       sync.Mutex
	payloads []forms.Payload
	err      error
}

func (f *fakeSender) Send(_ context.Context, p forms.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return f.err
}

func (f *fakeSender) sent() []forms.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]forms.Payload, len(f.payloads))
	copy(out, f.payloads)
	return out
}

func testConfig(t *testing.T, overrides map[string]string) config.Config {
	t.Helper()
	env := map[string]string{
		"CLINIC_WEB_BASE_URL":            "https://www.dion-clinic.test",
		"CLINIC_WEB_TEMPLATES_DIR":       "../../templates",
		"CLINIC_WEB_PUBLIC_DIR":          "../../public",
		"CLINIC_WEB_LOCALES_DIR":         "../../locales",
		"CLINIC_WEB_CONTENT_DIR":         "../../content",
		"CLINIC_WEB_SESSION_SIGNING_KEY": "test-signing-key-0123456789abcdef",
		"CLINIC_WEB_GTM_CONTAINER_ID":    "GTM-TEST123",
	}
	for k, v := range overrides {
		env[k] = v
	}
	cfg, err := config.Load(context.Background(), config.WithEnvFile(""), config.WithoutSystemEnv(), config.WithEnvMap(env))
	require.NoError(t, err)
	return cfg
}

// newTestRouter builds the full application router with a fake webhook.
func newTestRouter(t *testing.T, overrides map[string]string) (http.Handler, *fakeSender) {
	t.Helper()
	sender := &fakeSender{}
	a, err := newApp(testConfig(t, overrides), nil, withSender(sender))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a.router(), sender
}

// browser replays cookies between requests like a user agent would.
type browser struct {
	t       *testing.T
	h       http.Handler
	ua      string
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, h http.Handler, ua string) *browser {
	return &browser{t: t, h: h, ua: ua, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	req.Header.Set("User-Agent", b.ua)
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.h.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (b *browser) htmxPost(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	if c, ok := b.cookies["csrf_token"]; ok {
		req.Header.Set("X-CSRF-Token", c.Value)
	}
	return b.do(req)
}

func parse(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	return doc
}

func TestHealthzOK(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", strings.TrimSpace(rec.Body.String()))
}

func TestHomeComposesSections(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	rec := newBrowser(t, srv, desktopUA).get("/")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc := parse(t, rec)
	var kinds []string
	doc.Find("main > section[data-section]").Each(func(_ int, s *goquery.Selection) {
		kinds = append(kinds, s.AttrOr("data-section", ""))
	})
	require.Equal(t, []string{"hero", "benefits", "treatments", "beforeafter", "process", "testimonials", "pricing", "faq", "cta", "map"}, kinds)

	first := doc.Find("main > section").First()
	require.True(t, first.HasClass("is-visible"), "first section is revealed immediately")
	_, hidden := first.Attr("data-reveal")
	require.False(t, hidden)
	require.True(t, doc.Find("#benefits").HasClass("section--tinted"))
	_, pending := doc.Find("#benefits").Attr("data-reveal")
	require.True(t, pending)

	require.Equal(t, "2.490\u00a0€", strings.TrimSpace(doc.Find("#pricing [data-package=fue] [data-price]").Text()))
	require.Equal(t, "de", doc.Find("html").AttrOr("lang", ""))
}

func TestHomeSEO(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	rec := newBrowser(t, srv, desktopUA).get("/?hl=en")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "en", rec.Header().Get("Content-Language"))

	doc := parse(t, rec)
	hreflang := map[string]string{}
	doc.Find(`link[rel=alternate][hreflang]`).Each(func(_ int, s *goquery.Selection) {
		hreflang[s.AttrOr("hreflang", "")] = s.AttrOr("href", "")
	})
	require.Equal(t, "https://www.dion-clinic.test/", hreflang["de"])
	require.Equal(t, "https://www.dion-clinic.test/?hl=en", hreflang["en"])
	require.Equal(t, "https://www.dion-clinic.test/?hl=tr", hreflang["tr"])
	require.Equal(t, "https://www.dion-clinic.test/", hreflang["x-default"])
	require.Equal(t, "https://www.dion-clinic.test/?hl=en", doc.Find(`link[rel=canonical]`).AttrOr("href", ""))
	require.Equal(t, "en_US", doc.Find(`meta[property="og:locale"]`).AttrOr("content", ""))

	var ld []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		ld = append(ld, s.Text())
	})
	joined := strings.Join(ld, "\n")
	require.Contains(t, joined, `"MedicalClinic"`)
	require.Contains(t, joined, `"FAQPage"`)
	require.Contains(t, joined, `"WebSite"`)

	require.Contains(t, rec.Body.String(), "GTM-TEST123")
	events := doc.Find("#datalayer-events").Text()
	require.Contains(t, events, `"event":"page_view"`)
	require.Contains(t, events, `"language":"en"`)
}

func TestDeviceGuardRedirectsOnce(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	b := newBrowser(t, srv, iphoneUA)

	rec := b.get("/prices?hl=en")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/mobile?hl=en", rec.Header().Get("Location"))
	require.NotEmpty(t, rec.Header().Get("Accept-CH"))

	rec = b.get("/mobile?hl=en")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, parse(t, rec).Find("body").HasClass("is-mobile"))

	// the latch holds for the rest of the session
	rec = b.get("/prices")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDeviceGuardLeavesDesktopAlone(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	rec := newBrowser(t, srv, desktopUA).get("/prices")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDeviceGuardNarrowViewportHint(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	b := newBrowser(t, srv, desktopUA)
	req := httptest.NewRequest(http.MethodGet, "/contact", nil)
	req.Header.Set("Sec-CH-Viewport-Width", "540")
	rec := b.do(req)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/mobile", rec.Header().Get("Location"))
}

func TestContactFormValidationAndSubmit(t *testing.T) {
	srv, sender := newTestRouter(t, nil)
	b := newBrowser(t, srv, desktopUA)

	rec := b.get("/contact?hl=en")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)
	form := doc.Find("#form-contact form")
	require.Equal(t, 1, form.Length())
	require.Equal(t, b.cookies["csrf_token"].Value, form.Find(`input[name=csrf_token]`).AttrOr("value", ""))

	rec = b.htmxPost("/forms/contact", url.Values{"name": {"Jane"}, "email": {""}})
	require.Equal(t, http.StatusOK, rec.Code)
	doc = parse(t, rec)
	require.True(t, doc.Find(`[data-field=email]`).HasClass("field--invalid"))
	require.False(t, doc.Find(`[data-field=name]`).HasClass("field--invalid"))
	require.Equal(t, "Jane", doc.Find("#contact-name").AttrOr("value", ""))
	require.Empty(t, sender.sent(), "invalid drafts are never posted")

	rec = b.htmxPost("/forms/contact", url.Values{
		"name":    {"Jane Doe"},
		"email":   {"jane@example.com"},
		"subject": {"prices"},
		"message": {"How much is DHI?"},
		"privacy": {"on"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	doc = parse(t, rec)
	require.Equal(t, 1, doc.Find(".form-status--success").Length())
	require.Contains(t, rec.Header().Get("HX-Trigger"), "generate_lead")

	sent := sender.sent()
	require.Len(t, sent, 1)
	require.Equal(t, "contact_form", sent[0].FormType)
	require.Equal(t, "en", sent[0].Locale)
	require.Equal(t, "Jane Doe", sent[0].Fields["name"])
	require.Equal(t, true, sent[0].Fields["privacy"])
}

func TestFormsAreIsolatedPerKind(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	b := newBrowser(t, srv, desktopUA)
	b.get("/contact")
	b.htmxPost("/forms/contact", url.Values{"name": {"Only contact"}})

	rec := b.get("/forms/appointment")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, parse(t, rec).Find("#appointment-name").AttrOr("value", ""))
}

func TestFormSubmitFailureShowsGenericError(t *testing.T) {
	srv, sender := newTestRouter(t, nil)
	sender.err = &forms.SubmitError{StatusCode: http.StatusBadGateway}
	b := newBrowser(t, srv, desktopUA)
	b.get("/appointment")

	rec := b.htmxPost("/forms/appointment", url.Values{
		"name":            {"Jane"},
		"email":           {"jane@example.com"},
		"phone":           {"+49 170 000000"},
		"appointmentType": {"video"},
		"privacy":         {"1"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)
	require.Equal(t, 1, doc.Find(".form-status--error").Length())
	require.Equal(t, "Jane", doc.Find("#appointment-name").AttrOr("value", ""), "draft survives a failed delivery")
}

func TestFormRejectsMissingCSRF(t *testing.T) {
	srv, sender := newTestRouter(t, nil)
	b := newBrowser(t, srv, desktopUA)
	b.get("/contact")
	delete(b.cookies, "csrf_token")

	req := httptest.NewRequest(http.MethodPost, "/forms/contact", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := b.do(req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, sender.sent())
}

func TestUnknownFormKind(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	rec := newBrowser(t, srv, desktopUA).get("/forms/newsletter")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCarouselFragmentStopsAutoplayAfterManualMove(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	b := newBrowser(t, srv, desktopUA)

	rec := b.get("/fragments/carousel/testimonials?i=0&action=tick")
	require.Equal(t, http.StatusOK, rec.Code)
	root := parse(t, rec).Find("#carousel-testimonials")
	_, autoplay := root.Attr("data-autoplay")
	require.True(t, autoplay)
	require.Contains(t, root.AttrOr("hx-get", ""), "i=1")

	rec = b.get("/fragments/carousel/testimonials?i=1&action=next&manual=1")
	require.Equal(t, http.StatusOK, rec.Code)
	root = parse(t, rec).Find("#carousel-testimonials")
	_, autoplay = root.Attr("data-autoplay")
	require.False(t, autoplay, "manual control ends autoplay")
	require.Equal(t, "Zu Eintrag 3", root.Find(".carousel__dots .is-active").AttrOr("aria-label", ""))
	require.Contains(t, rec.Header().Get("HX-Trigger"), "carousel_interaction")

	// a stale tick from a controlled carousel does not advance it
	rec = b.get("/fragments/carousel/testimonials?i=2&action=tick&manual=1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, parse(t, rec).Find("#carousel-testimonials").Text(), "Ahmet")
}

func TestCarouselFragmentUnknownName(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	rec := newBrowser(t, srv, desktopUA).get("/fragments/carousel/partners")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBeforeAfterClampsAndResets(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	b := newBrowser(t, srv, desktopUA)

	rec := b.get("/fragments/before-after?case=0&pos=50&action=control&value=150")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)
	require.Contains(t, doc.Find(".compare__handle").AttrOr("style", ""), "100.00%")
	require.Equal(t, 0, doc.Find(".compare__before").Length(), "before layer hidden at 100")
	_, autoplay := doc.Find("#before-after").Attr("data-autoplay")
	require.False(t, autoplay)

	rec = b.get("/fragments/before-after?case=0&pos=0&action=drag&x=10&left=20&width=200")
	doc = parse(t, rec)
	require.Contains(t, doc.Find(".compare__handle").AttrOr("style", ""), "0.00%")
	require.Equal(t, 0, doc.Find(".compare__after").Length(), "after layer hidden at 0")

	rec = b.get("/fragments/before-after?case=0&pos=80&manual=1&action=next")
	doc = parse(t, rec)
	require.Contains(t, doc.Find(".compare__handle").AttrOr("style", ""), "50.00%", "case change resets the divider")
	require.Contains(t, doc.Find(".compare__caption").Text(), "Tonsur")
}

func TestLegalPages(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	b := newBrowser(t, srv, desktopUA)

	rec := b.get("/legal/privacy?hl=en")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)
	require.Equal(t, "Privacy policy", strings.TrimSpace(doc.Find("article.prose h1").Text()))
	require.Equal(t, 1, doc.Find(".breadcrumbs").Length())

	rec = b.get("/legal/../../etc/passwd")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTreatmentPage(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	b := newBrowser(t, srv, desktopUA)

	rec := b.get("/treatments/dhi")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)
	require.Contains(t, doc.Find("title").Text(), "DHI")
	require.Contains(t, rec.Body.String(), `"MedicalProcedure"`)
	require.Equal(t, 1, doc.Find("#appointment form").Length())

	rec = b.get("/treatments/unknown")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCityVariantOverridesHero(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	rec := newBrowser(t, srv, desktopUA).get("/city/wien")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)
	require.Equal(t, "Haartransplantation für Patienten aus Wien", strings.TrimSpace(doc.Find(".hero h1").Text()))
	require.Contains(t, doc.Find(".hero").AttrOr("sse-connect", ""), "city=wien")

	rec = newBrowser(t, srv, desktopUA).get("/city/atlantis")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotFoundRendersLayout(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	rec := newBrowser(t, srv, desktopUA).get("/no-such-page")
	require.Equal(t, http.StatusNotFound, rec.Code)
	doc := parse(t, rec)
	require.Equal(t, "noindex", doc.Find(`meta[name=robots]`).AttrOr("content", ""))
	require.Equal(t, 1, doc.Find("header.site-header").Length())
}

func TestPromoDismissLatches(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	b := newBrowser(t, srv, desktopUA)

	rec := b.get("/")
	require.Equal(t, 1, parse(t, rec).Find("#promo-popup").Length())
	rec = b.get("/contact")
	require.Equal(t, 0, parse(t, rec).Find("#promo-popup").Length(), "promo only runs on its routes")

	rec = b.htmxPost("/promo/dismiss", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("HX-Trigger"), "promo_dismiss")

	rec = b.get("/")
	require.Equal(t, 0, parse(t, rec).Find("#promo-popup").Length())
}

func TestHeroStreamSendsSlides(t *testing.T) {
	srv, _ := newTestRouter(t, map[string]string{"CLINIC_WEB_CAROUSEL_HERO_INTERVAL": "20ms"})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/stream/carousel/hero?i=0&hl=en", nil)
	require.NoError(t, err)
	res, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	sc := bufio.NewScanner(res.Body)
	var event string
	var data []string
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "event: ") {
			event = strings.TrimPrefix(line, "event: ")
		}
		if strings.HasPrefix(line, "data: ") {
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
		if line == "" && event != "" {
			break
		}
	}
	require.Equal(t, "slide", event)
	require.Contains(t, strings.Join(data, "\n"), "Natural results with FUE and DHI")
}

func TestShutdownEndsOpenHeroStreams(t *testing.T) {
	a, err := newApp(testConfig(t, map[string]string{"CLINIC_WEB_CAROUSEL_HERO_INTERVAL": "20ms"}), nil, withSender(&fakeSender{}))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := a.server("")
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	res, err := http.Get("http://" + ln.Addr().String() + "/stream/carousel/hero?hl=en")
	require.NoError(t, err)
	defer res.Body.Close()
	sc := bufio.NewScanner(res.Body)
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), "event: slide") {
			break
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, srv.Shutdown(ctx))
	require.Less(t, time.Since(start), time.Second)
	require.True(t, errors.Is(<-served, http.ErrServerClosed))
}

func TestCheckContentPasses(t *testing.T) {
	var out bytes.Buffer
	err := checkContent(context.Background(), testConfig(t, nil), &out)
	require.NoError(t, err, out.String())
	require.Contains(t, out.String(), "content ok")
}

func TestSessionCookieIsSigned(t *testing.T) {
	srv, _ := newTestRouter(t, nil)
	b := newBrowser(t, srv, desktopUA)
	b.get("/")
	c, ok := b.cookies[mw.SessionCookieName()]
	require.True(t, ok)
	require.Contains(t, c.Value, ".")
	require.True(t, c.HttpOnly)
}

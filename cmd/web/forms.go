package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/manuwestern/dionwebsite/internal/analytics"
	"github.com/manuwestern/dionwebsite/internal/forms"
	"github.com/manuwestern/dionwebsite/internal/handlers"
	mw "github.com/manuwestern/dionwebsite/internal/middleware"
	"github.com/manuwestern/dionwebsite/internal/platform/requestctx"
)

// formFragment renders the current state of the session's form instance.
// The success panel polls it to pick up the automatic reset.
func (a *app) formFragment(w http.ResponseWriter, r *http.Request) {
	kind, err := forms.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	f, err := a.forms.Get(mw.GetSession(r).ID, kind)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	view := handlers.BuildForm(f.Snapshot(), mw.CSRFToken(r), nil, a.cfg.Webhook.ResetDelay)
	a.renderFragment(w, r, "frag-form", handlers.Fragment{Lang: mw.Lang(r), View: view})
}

// submitForm applies the posted draft and delivers it to the webhook.
// Validation failures re-render the form with the missing fields marked;
// delivery failures show the single generic error message.
func (a *app) submitForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := requestctx.Logger(ctx)
	kind, err := forms.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	lang := mw.Lang(r)
	f, err := a.forms.Get(mw.GetSession(r).ID, kind)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	f.Update(r.PostForm)

	source := r.Header.Get("HX-Current-URL")
	if source == "" {
		source = r.Referer()
	}
	var missing []string
	err = f.Submit(ctx, forms.SubmitMeta{Source: source, Locale: lang})
	var verr *forms.ValidationError
	switch {
	case errors.As(err, &verr):
		missing = verr.Missing
		logger.Info("form invalid", zap.String("form", string(kind)), zap.Strings("missing", missing))
	case err != nil:
		logger.Error("form delivery failed", zap.String("form", string(kind)), zap.Error(err))
		analytics.Push(ctx, "form_error", map[string]any{"form_type": string(kind)})
	default:
		logger.Info("form delivered", zap.String("form", string(kind)), zap.String("submission_id", f.Snapshot().SubmissionID))
		analytics.Push(ctx, "generate_lead", map[string]any{"form_type": string(kind)})
	}
	mw.HXTrigger(w, analytics.TriggerHeader(analytics.FromContext(ctx).Events()))

	if !mw.IsHTMX(ctx) {
		target := "/contact"
		if kind == forms.KindAppointment {
			target = "/appointment"
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	view := handlers.BuildForm(f.Snapshot(), mw.CSRFToken(r), missing, a.cfg.Webhook.ResetDelay)
	a.renderFragment(w, r, "frag-form", handlers.Fragment{Lang: lang, View: view})
}

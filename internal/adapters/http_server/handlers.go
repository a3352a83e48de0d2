package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"listing_editor/internal/adapters/observability"
	"listing_editor/internal/app"
	"listing_editor/internal/domain"
	"listing_editor/internal/wizard"
)

var validate = validator.New()

type Handlers struct {
	Lookups  app.LookupSource
	Drafts   *app.DraftService
	Submit   *app.SubmitService
	Listings *app.ListingQueryService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ---- request DTOs ----

type startDraftRequest struct {
	ListingID string `json:"listingId" validate:"omitempty,max=64"`
}

type stepRequest struct {
	Patch map[string]any `json:"patch" validate:"required"`
}

type stateRequest struct {
	State map[string]any `json:"state" validate:"required"`
}

// ---- response views ----

type optionView struct {
	ID     string           `json:"id"`
	Label  string           `json:"label"`
	Symbol string           `json:"symbol,omitempty"`
	Name   domain.Bilingual `json:"name"`
	Active bool             `json:"active"`
}

type lookupsView struct {
	Locale      string                  `json:"locale"`
	Collections map[string][]optionView `json:"collections"`
}

type draftView struct {
	domain.Draft
	Ready bool `json:"ready"`
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "listing not found")
	case errors.Is(err, domain.ErrDraftNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "draft not found or expired")
	case errors.Is(err, domain.ErrInvalidStep):
		writeProblem(w, http.StatusBadRequest, "Invalid Step", err.Error())
	case errors.Is(err, domain.ErrDraftIncomplete):
		writeProblem(w, http.StatusConflict, "Draft Incomplete", "every step must be completed before submitting")
	case errors.As(err, &verrs):
		writeProblem(w, http.StatusBadRequest, "Validation Failed", validationDetail(verrs))
	case errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, http.StatusGatewayTimeout, "Timeout", "upstream did not answer in time")
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusBadGateway, "Upstream Failure", "the listing could not be processed")
	}
}

func validationDetail(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// decodeBody reads a JSON body into dst and validates it. An empty body is
// allowed when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
			return false
		}
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeCached answers with an ETag and honours If-None-Match.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write cached body")
	}
}

// ---- lookups ----

func (h *Handlers) getLookups(w http.ResponseWriter, r *http.Request) {
	lk, err := h.Lookups.Current(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if r.URL.Query().Get("active") == "1" {
		lk = lk.Active()
	}
	locale := localeFrom(r)
	view := lookupsView{Locale: locale, Collections: make(map[string][]optionView, len(domain.Collections))}
	for _, name := range domain.Collections {
		opts := make([]optionView, 0, len(lk.Collection(name)))
		for _, e := range lk.Collection(name) {
			o := optionView{ID: e.ID, Label: label(e.Name, locale), Name: e.Name, Active: e.Active()}
			if e.Symbol != nil {
				o.Symbol = label(*e.Symbol, locale)
			}
			opts = append(opts, o)
		}
		view.Collections[name] = opts
	}
	writeCached(w, r, view)
}

func label(b domain.Bilingual, locale string) string {
	if s := strings.TrimSpace(b.Get(locale)); s != "" {
		return s
	}
	return b.First()
}

// ---- drafts ----

func (h *Handlers) startDraft(w http.ResponseWriter, r *http.Request) {
	var req startDraftRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	d, err := h.Drafts.Start(r.Context(), req.ListingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, draftView{Draft: d, Ready: wizard.Ready(d)})
}

func (h *Handlers) getDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.Drafts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draftView{Draft: d, Ready: wizard.Ready(d)})
}

func (h *Handlers) discardDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.Drafts.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func stepParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err == nil {
		err = validate.Var(step, "min=1,max=4")
	}
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Step", "step must be an integer between 1 and 4")
		return 0, false
	}
	return step, true
}

// getStep returns the slice of the draft a step component edits.
func (h *Handlers) getStep(w http.ResponseWriter, r *http.Request) {
	step, ok := stepParam(w, r)
	if !ok {
		return
	}
	d, err := h.Drafts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	st, err := wizard.Slice(d, step)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) patchStep(w http.ResponseWriter, r *http.Request) {
	step, ok := stepParam(w, r)
	if !ok {
		return
	}
	var req stepRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	d, err := h.Drafts.Step(r.Context(), chi.URLParam(r, "id"), step, domain.State(req.Patch))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draftView{Draft: d, Ready: wizard.Ready(d)})
}

func (h *Handlers) submitDraft(w http.ResponseWriter, r *http.Request) {
	sub, err := h.Drafts.Submit(r.Context(), chi.URLParam(r, "id"))
	recordSubmission("draft", sub, err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// ---- listings ----

func recordSubmission(mode string, sub app.Submission, err error) {
	observability.ObserveSubmission(mode, err)
	for _, wr := range sub.Warnings {
		observability.ObservePipelineWarning(wr.Stage, wr.Reason)
	}
}

func (h *Handlers) createListing(w http.ResponseWriter, r *http.Request) {
	var req stateRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	sub, err := h.Submit.Create(r.Context(), domain.State(req.State))
	recordSubmission(domain.ModeCreate, sub, err)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/listings/"+sub.ID)
	writeJSON(w, http.StatusCreated, sub)
}

func (h *Handlers) updateListing(w http.ResponseWriter, r *http.Request) {
	var req stateRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	sub, err := h.Submit.Update(r.Context(), chi.URLParam(r, "id"), domain.State(req.State))
	recordSubmission(domain.ModeEdit, sub, err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *Handlers) getListing(w http.ResponseWriter, r *http.Request) {
	l, err := h.Listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, l)
}

func (h *Handlers) editListing(w http.ResponseWriter, r *http.Request) {
	st, err := h.Listings.EditState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

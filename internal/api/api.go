/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/panchangam/internal/auth"
	"github.com/friendsincode/panchangam/internal/festival"
	"github.com/friendsincode/panchangam/internal/lookup"
	"github.com/friendsincode/panchangam/internal/muhurtham"
	"github.com/friendsincode/panchangam/internal/panchangam"
	"github.com/friendsincode/panchangam/internal/precompute"
)

// SourceHeader reports whether a response came from the cache.
const SourceHeader = "X-Panchang-Source"

// Lookups answers the three on-demand queries.
type Lookups interface {
	Panchangam(ctx context.Context, date panchangam.Date, loc panchangam.Location) (*panchangam.Day, lookup.Source, error)
	FestivalCalendar(ctx context.Context, q festival.Query) ([]festival.Day, lookup.Source, error)
	Muhurtham(ctx context.Context, date panchangam.Date, loc panchangam.Location, eventType string) (*muhurtham.Result, lookup.Source, error)
}

// Precompute is the admin view of the scheduler.
type Precompute interface {
	Start(ctx context.Context) (string, error)
	Running() bool
	Summary(ctx context.Context) (*precompute.Summary, error)
}

// API exposes HTTP handlers.
type API struct {
	lookups    Lookups
	precompute Precompute
	jwtSecret  []byte
	defaultTZ  string
	baseCtx    context.Context
	now        func() time.Time
	logger     zerolog.Logger
}

// New creates the API router wrapper. precompute may be nil. Admin runs
// are bound to baseCtx rather than to the request.
func New(baseCtx context.Context, lookups Lookups, pre Precompute, jwtSecret []byte, defaultTZ string, logger zerolog.Logger) *API {
	if defaultTZ == "" {
		defaultTZ = "Asia/Kolkata"
	}
	return &API{
		lookups:    lookups,
		precompute: pre,
		jwtSecret:  jwtSecret,
		defaultTZ:  defaultTZ,
		baseCtx:    baseCtx,
		now:        time.Now,
		logger:     logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts the API under /api/v1.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/panchangam", a.handlePanchangam)
		r.Get("/festivals", a.handleFestivals)
		r.Get("/festivals.ics", a.handleFestivalsICS)
		r.Get("/muhurtham", a.handleMuhurtham)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.Middleware(a.jwtSecret))
			r.Use(auth.RequireRole(auth.RoleAdmin))
			r.Post("/precompute", a.handlePrecomputeStart)
			r.Get("/precompute/summary", a.handlePrecomputeSummary)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeErrorMessage(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

// writeLookupError maps the error taxonomy to a status: bad input is the
// caller's fault, an unsolvable date is unprocessable, the rest is ours.
func (a *API) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *panchangam.InputValidationError
	var cerr *panchangam.AstronomicalComputationError
	switch {
	case errors.As(err, &verr):
		writeErrorMessage(w, http.StatusBadRequest, "invalid_"+verr.Field, verr.Error())
	case errors.As(err, &cerr):
		writeErrorMessage(w, http.StatusUnprocessableEntity, "computation_failed", cerr.Error())
	default:
		a.logger.Error().Err(err).Str("path", r.URL.Path).Msg("lookup failed")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

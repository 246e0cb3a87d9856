/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/friendsincode/panchangam/internal/festival"
	"github.com/friendsincode/panchangam/internal/panchangam"
	"github.com/friendsincode/panchangam/internal/precompute"
)

func invalid(field, value, reason string) error {
	return &panchangam.InputValidationError{Field: field, Value: value, Reason: reason}
}

func (a *API) location(r *http.Request) (panchangam.Location, error) {
	q := r.URL.Query()
	lat, err := floatParam(q.Get("lat"), "latitude")
	if err != nil {
		return panchangam.Location{}, err
	}
	lon, err := floatParam(q.Get("lon"), "longitude")
	if err != nil {
		return panchangam.Location{}, err
	}
	tz := strings.TrimSpace(q.Get("tz"))
	if tz == "" {
		tz = a.defaultTZ
	}
	return panchangam.NewLocation(lat, lon, tz)
}

func floatParam(raw, field string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, invalid(field, raw, "required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, invalid(field, raw, "not a number")
	}
	return v, nil
}

// date reads ?date=, defaulting to today in loc's zone.
func (a *API) date(r *http.Request, loc panchangam.Location) (panchangam.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw != "" {
		return panchangam.ParseDate(raw)
	}
	z, err := loc.TZ()
	if err != nil {
		return panchangam.Date{}, err
	}
	return panchangam.DateOf(a.now().In(z)), nil
}

func (a *API) festivalQuery(r *http.Request) (festival.Query, error) {
	loc, err := a.location(r)
	if err != nil {
		return festival.Query{}, err
	}
	q := r.URL.Query()
	fq := festival.Query{Location: loc, Region: q.Get("region")}

	z, _ := loc.TZ()
	fq.Year = a.now().In(z).Year()
	if raw := strings.TrimSpace(q.Get("year")); raw != "" {
		if fq.Year, err = strconv.Atoi(raw); err != nil {
			return festival.Query{}, invalid("year", raw, "not an integer")
		}
	}
	if raw := strings.TrimSpace(q.Get("month")); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil {
			return festival.Query{}, invalid("month", raw, "not an integer")
		}
		fq.Month = time.Month(m)
	}
	return fq, fq.Validate()
}

func (a *API) handlePanchangam(w http.ResponseWriter, r *http.Request) {
	loc, err := a.location(r)
	if err != nil {
		a.writeLookupError(w, r, err)
		return
	}
	date, err := a.date(r, loc)
	if err != nil {
		a.writeLookupError(w, r, err)
		return
	}

	day, src, err := a.lookups.Panchangam(r.Context(), date, loc)
	if err != nil {
		a.writeLookupError(w, r, err)
		return
	}
	w.Header().Set(SourceHeader, string(src))
	writeJSON(w, http.StatusOK, day)
}

type festivalResponse struct {
	Year      int            `json:"year"`
	Month     int            `json:"month,omitempty"`
	Region    string         `json:"region"`
	Location  string         `json:"location"`
	Count     int            `json:"count"`
	Festivals []festival.Day `json:"festivals"`
}

func (a *API) handleFestivals(w http.ResponseWriter, r *http.Request) {
	q, err := a.festivalQuery(r)
	if err != nil {
		a.writeLookupError(w, r, err)
		return
	}
	days, src, err := a.lookups.FestivalCalendar(r.Context(), q)
	if err != nil {
		a.writeLookupError(w, r, err)
		return
	}
	w.Header().Set(SourceHeader, string(src))
	writeJSON(w, http.StatusOK, festivalResponse{
		Year:      q.Year,
		Month:     int(q.Month),
		Region:    festival.NormalizeRegion(q.Region),
		Location:  q.Location.Canonical(),
		Count:     len(days),
		Festivals: days,
	})
}

func (a *API) handleFestivalsICS(w http.ResponseWriter, r *http.Request) {
	q, err := a.festivalQuery(r)
	if err != nil {
		a.writeLookupError(w, r, err)
		return
	}
	days, src, err := a.lookups.FestivalCalendar(r.Context(), q)
	if err != nil {
		a.writeLookupError(w, r, err)
		return
	}

	name := fmt.Sprintf("Festivals %s %d", festival.NormalizeRegion(q.Region), q.Year)
	if q.Month != 0 {
		name = fmt.Sprintf("Festivals %s %04d-%02d", festival.NormalizeRegion(q.Region), q.Year, int(q.Month))
	}
	w.Header().Set(SourceHeader, string(src))
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="festivals.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(festival.ICS(days, festival.ICSOptions{Name: name})))
}

func (a *API) handleMuhurtham(w http.ResponseWriter, r *http.Request) {
	loc, err := a.location(r)
	if err != nil {
		a.writeLookupError(w, r, err)
		return
	}
	date, err := a.date(r, loc)
	if err != nil {
		a.writeLookupError(w, r, err)
		return
	}

	res, src, err := a.lookups.Muhurtham(r.Context(), date, loc, r.URL.Query().Get("event_type"))
	if err != nil {
		a.writeLookupError(w, r, err)
		return
	}
	w.Header().Set(SourceHeader, string(src))
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handlePrecomputeStart(w http.ResponseWriter, r *http.Request) {
	if a.precompute == nil {
		writeError(w, http.StatusServiceUnavailable, "precompute_disabled")
		return
	}
	runID, err := a.precompute.Start(a.baseCtx)
	if errors.Is(err, precompute.ErrRunning) {
		writeError(w, http.StatusConflict, "precompute_running")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("start precompute")
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	a.logger.Info().Str("run_id", runID).Msg("precompute run started by admin")
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID, "status": "started"})
}

func (a *API) handlePrecomputeSummary(w http.ResponseWriter, r *http.Request) {
	if a.precompute == nil {
		writeError(w, http.StatusServiceUnavailable, "precompute_disabled")
		return
	}
	sum, err := a.precompute.Summary(r.Context())
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "no_summary", "running": a.precompute.Running()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"running": a.precompute.Running(), "summary": sum})
}

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"BenchBoard/internal/collector"
	"BenchBoard/internal/model"
	"BenchBoard/internal/recorder"
	"BenchBoard/internal/render"
)

const pageTitle = "BTC vs Traditional & Real Estate Assets"

// splitList collects comma-separated values across repeated query keys.
// The result is nil when the key is absent and non-nil when it is present.
func splitList(q url.Values, key string) []string {
	raw, ok := q[key]
	if !ok {
		return nil
	}
	out := []string{}
	for _, r := range raw {
		for _, p := range strings.Split(r, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// parseRequest builds a pipeline request from query parameters:
// instruments (catalog labels), symbols (free-form), prev_symbols, show,
// start and end.
func (s *Server) parseRequest(q url.Values) (collector.Request, error) {
	var req collector.Request

	defStart, defEnd, err := s.Config.DateRange(s.now())
	if err != nil {
		return req, fmt.Errorf("configured range: %v: %w", err, model.ErrInvalidRequest)
	}
	req.Start, req.End = defStart, defEnd
	if v := q.Get("start"); v != "" {
		if req.Start, err = model.ParseDay(v); err != nil {
			return req, fmt.Errorf("%v: %w", err, model.ErrInvalidRequest)
		}
	}
	if v := q.Get("end"); v != "" {
		if req.End, err = model.ParseDay(v); err != nil {
			return req, fmt.Errorf("%v: %w", err, model.ErrInvalidRequest)
		}
	}

	if labels := splitList(q, "instruments"); len(labels) > 0 {
		for _, l := range labels {
			in, ok := s.Config.Lookup(l)
			if !ok {
				return req, fmt.Errorf("unknown instrument %q: %w", l, model.ErrInvalidRequest)
			}
			req.Instruments = append(req.Instruments, in)
		}
	} else {
		req.Instruments = append(req.Instruments, s.Config.Instruments...)
	}

	req.Show = splitList(q, "show")

	// The page echoes the symbols it was rendered with in prev_symbols. Any
	// symbol not listed there was just added and has no checkbox yet, so it
	// joins an explicit selection.
	prev := make(map[string]bool)
	for _, sym := range splitList(q, "prev_symbols") {
		prev[strings.ToUpper(sym)] = true
	}
	for _, sym := range splitList(q, "symbols") {
		sym = strings.ToUpper(sym)
		dup := false
		for _, in := range req.Instruments {
			if in.Symbol == sym || in.Label == sym {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		req.Instruments = append(req.Instruments, model.Instrument{Label: sym, Symbol: sym})
		if req.Show != nil && !prev[sym] {
			req.Show = append(req.Show, sym)
		}
	}
	return req, nil
}

// run parses, executes and records one pipeline run.
func (s *Server) run(r *http.Request) (*model.RenderModel, collector.Request, error) {
	req, err := s.parseRequest(r.URL.Query())
	if err != nil {
		return nil, req, err
	}
	began := time.Now()
	rm, err := s.Collector.Run(r.Context(), req)
	evt := recorder.NewRunEvent("HTTP", req.Symbols(), req.Start, req.End, rm, err, time.Since(began))
	if recErr := s.Recorder.RecordRun(evt); recErr != nil {
		log.Printf("[ERROR] record run: %v", recErr)
	}
	return rm, req, err
}

// statusFor maps pipeline errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNoPriceFieldFound), errors.Is(err, model.ErrUnexpectedShape):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrDataUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[ERROR] request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	rm, _, err := s.run(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	rm, _, err := s.run(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, rm.Prices)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, render.PricesMarkdown(rm))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, fmt.Errorf("limit must be a positive integer: %w", model.ErrInvalidRequest))
			return
		}
		limit = n
	}
	runs, err := s.Recorder.RecentRuns(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []recorder.RunEvent{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	rm, req, err := s.run(r)
	data := render.PageData{
		Title:   pageTitle,
		Start:   req.Start.Format(model.DateLayout),
		End:     req.End.Format(model.DateLayout),
		Symbols: r.URL.Query().Get("symbols"),
	}
	if req.Start.IsZero() || req.End.IsZero() {
		data.Start, data.End = r.URL.Query().Get("start"), r.URL.Query().Get("end")
	}
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		data.Error = err.Error()
	} else {
		shown := make(map[string]bool)
		for _, name := range rm.Display.Names() {
			shown[name] = true
		}
		for _, label := range rm.Available {
			data.Choices = append(data.Choices, render.Choice{Label: label, Checked: shown[label]})
		}
		data.Warnings = rm.Warnings
		data.Chart = template.HTML(render.ChartSVG(rm.Display, render.ChartOptions{
			Title: fmt.Sprintf("BTC vs TradFi Assets Performance (%s - %s)",
				rm.Start.Format(model.DateLayout), rm.End.Format(model.DateLayout)),
		}))
		q := r.URL.Query()
		q.Del("show")
		data.PricesURL = "/api/v1/prices?" + q.Encode()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := render.Page(w, data); err != nil {
		log.Printf("[ERROR] render page: %v", err)
	}
}

// Package webui exposes the analyst-facing HTTP server: a password-gated
// HTML form for filter criteria and the rendered non-missing counts, plus a
// machine-friendly JSON endpoint.
//
// Routes:
//
//	GET  /            → filter form (or login form when unauthenticated)
//	POST /login       → password check, sets the session cookie
//	POST /report      → runs the query with form inputs; renders counts inline
//	GET  /api/report  → same query via URL params, returns application/json
//
// The server is deliberately thin: it translates form values into a
// report.Query and display rows, and owns nothing but sessions. All
// reporting semantics live in the engine.
package webui

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"arrowdash/internal/config"
	"arrowdash/internal/filter"
	"arrowdash/internal/report"
)

// Config controls server startup.
type Config struct {
	Addr string

	// Secret is the shared password. Empty is a construction error; the
	// config validator should have caught it earlier.
	Secret string
}

// Server wraps http.Server for convenience.
type Server struct {
	cfg      Config
	engine   *report.Engine
	filters  []config.Filter
	columns  config.Columns
	mux      *http.ServeMux
	tmpl     *template.Template
	sessions *sessionStore
}

// NewServer constructs a Server with routes and the embedded template.
func NewServer(cfg Config, eng *report.Engine, app config.App) (*Server, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("webui: password secret must not be empty")
	}
	s := &Server{
		cfg:      cfg,
		engine:   eng,
		filters:  app.Filters,
		columns:  app.Columns,
		mux:      http.NewServeMux(),
		tmpl:     template.Must(template.New("index").Parse(indexHTML)),
		sessions: newSessionStore(),
	}
	s.routes()
	return s, nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.cfg.Addr, s.mux)
}

// Handler returns the route mux, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/login", s.handleLogin)
	s.mux.HandleFunc("/report", s.handleReport)
	s.mux.HandleFunc("/api/report", s.handleAPIReport)
}

// page is the single template's data. Exactly one of LoginError/Form state
// matters depending on Authenticated.
type page struct {
	Authenticated bool
	LoginError    string

	Filters    []config.Filter
	QueryError string

	// Result display; nil until a query ran.
	HasResult    bool
	FilteredRows int
	CountRows    []countRow
	BucketLabels []string
	BucketRows   []bucketRow
}

type countRow struct {
	Variable string
	Count    int
}

type bucketRow struct {
	Variable string
	Cells    []int // aligned to BucketLabels
}

// handleIndex renders the filter form, or the login form for
// unauthenticated visitors.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, page{
		Authenticated: s.authenticated(r),
		Filters:       s.filters,
	})
}

// handleLogin processes the password form.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !secretsEqual(r.FormValue("password"), s.cfg.Secret) {
		w.WriteHeader(http.StatusUnauthorized)
		s.render(w, page{LoginError: "Password incorrect"})
		return
	}
	token, err := s.sessions.issue()
	if err != nil {
		http.Error(w, "session error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleReport runs the query with form inputs and renders results inline.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if !s.authenticated(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form: "+err.Error(), http.StatusBadRequest)
		return
	}

	q, err := s.buildQuery(r.Form)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		s.render(w, page{Authenticated: true, Filters: s.filters, QueryError: err.Error()})
		return
	}
	res, err := s.engine.Run(r.Context(), q)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		s.render(w, page{Authenticated: true, Filters: s.filters, QueryError: err.Error()})
		return
	}
	s.render(w, s.resultPage(q, res))
}

// handleAPIReport returns JSON so scripts can curl it easily.
func (s *Server) handleAPIReport(w http.ResponseWriter, r *http.Request) {
	if !s.authenticated(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	q, err := s.buildQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := s.engine.Run(r.Context(), q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	out := struct {
		Epoch        uint64                    `json:"epoch"`
		FilteredRows int                       `json:"filtered_rows"`
		Counts       map[string]int            `json:"counts"`
		Buckets      map[string]map[string]int `json:"buckets,omitempty"`
	}{res.Epoch, res.FilteredRows, res.Counts, res.Buckets}
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.Println("webui: encode response:", err)
	}
}

// buildQuery translates submitted values into a fully constructed
// report.Query. Values arrives from either a POST form or URL query params;
// both are url.Values-shaped.
func (s *Server) buildQuery(values map[string][]string) (report.Query, error) {
	preds := filter.PredicateSet{}

	for _, f := range s.filters {
		selected := values[f.Column]
		if len(selected) == 0 {
			continue // no selection = select all
		}
		accepted := make([]any, 0, len(selected))
		for _, choice := range selected {
			accepted = append(accepted, f.Value(choice))
		}
		preds[f.Column] = filter.Set{Values: accepted}
	}

	if rng, ok, err := parseRange(values, "age_min", "age_max"); err != nil {
		return report.Query{}, err
	} else if ok {
		preds[s.columns.Age] = rng
	}
	if rng, ok, err := parseRange(values, "tss_min", "tss_max"); err != nil {
		return report.Query{}, err
	} else if ok {
		preds[s.columns.TimeSince] = rng
	}

	return report.Query{
		Predicates:   preds,
		OnlyLongTerm: formBool(values, "long_term"),
		Longitudinal: formBool(values, "longitudinal"),
	}, nil
}

// parseRange reads an optional [lo, hi] pair. Both bounds blank means no
// range predicate; a single blank bound is a user error worth flagging.
func parseRange(values map[string][]string, loKey, hiKey string) (filter.Range, bool, error) {
	loStr := strings.TrimSpace(formValue(values, loKey))
	hiStr := strings.TrimSpace(formValue(values, hiKey))
	if loStr == "" && hiStr == "" {
		return filter.Range{}, false, nil
	}
	if loStr == "" || hiStr == "" {
		return filter.Range{}, false, fmt.Errorf("webui: %s and %s must be given together", loKey, hiKey)
	}
	lo, err := strconv.ParseFloat(loStr, 64)
	if err != nil {
		return filter.Range{}, false, fmt.Errorf("webui: %s: not a number: %q", loKey, loStr)
	}
	hi, err := strconv.ParseFloat(hiStr, 64)
	if err != nil {
		return filter.Range{}, false, fmt.Errorf("webui: %s: not a number: %q", hiKey, hiStr)
	}
	return filter.Range{Lo: lo, Hi: hi}, true, nil
}

func formValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func formBool(values map[string][]string, key string) bool {
	v := strings.ToLower(formValue(values, key))
	return v == "on" || v == "true" || v == "1"
}

// resultPage lays the engine result out in the display order of the
// variable list and bucket scheme.
func (s *Server) resultPage(q report.Query, res report.Result) page {
	p := page{
		Authenticated: true,
		Filters:       s.filters,
		HasResult:     true,
		FilteredRows:  res.FilteredRows,
	}
	for _, v := range s.engine.Variables() {
		p.CountRows = append(p.CountRows, countRow{Variable: v, Count: res.Counts[v]})
	}
	if q.Longitudinal && res.Buckets != nil {
		for _, b := range s.engine.Buckets() {
			p.BucketLabels = append(p.BucketLabels, b.Label)
		}
		for _, v := range s.engine.Variables() {
			row := bucketRow{Variable: v}
			for _, label := range p.BucketLabels {
				row.Cells = append(row.Cells, res.Buckets[label][v])
			}
			p.BucketRows = append(p.BucketRows, row)
		}
	}
	return p
}

func (s *Server) render(w http.ResponseWriter, p page) {
	if err := s.tmpl.Execute(w, p); err != nil {
		log.Println("webui: template error:", err)
	}
}

// indexHTML is an embedded, minimal page with vanilla styling.
//
//go:embed index.tmpl.html
var indexHTML string

package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/spregistry/internal/core"
	"github.com/JonMunkholm/spregistry/internal/store/table"
)

// DefaultRunsLimit is the number of runs returned by GET /api/runs.
const DefaultRunsLimit = 20

type healthResponse struct {
	Status string                `json:"status"`
	Run    core.RunLimiterStatus `json:"run"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status: "ok",
		Run:    s.service.Limiter().Status(),
	})
}

type tableResponse struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Columns []string `json:"columns"`
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables := s.service.ListTables()
	out := make([]tableResponse, len(tables))
	for i, t := range tables {
		out[i] = tableResponse{Key: t.Key, Label: t.Label, Columns: t.Columns}
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := s.service.Organizations(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if orgs == nil {
		orgs = []core.Organization{}
	}
	writeJSON(w, r, http.StatusOK, orgs)
}

func (s *Server) handleOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := positiveInt(chi.URLParam(r, "orgID"), "orgID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	org, err := s.service.Organization(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, org)
}

// handleListing serves GET /api/listing?org_id=&country=&continent=.
func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.ListingFilter{
		Country:   strings.TrimSpace(q.Get("country")),
		Continent: strings.TrimSpace(q.Get("continent")),
	}
	if v := q.Get("org_id"); v != "" {
		id, err := positiveInt(v, "org_id")
		if err != nil {
			respondError(w, r, err)
			return
		}
		filter.OrgID = id
	}

	entries, err := s.service.Listing(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, entries)
}

func (s *Server) handleListingEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.service.ListingEntry(r.Context(), chi.URLParam(r, "spID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, entry)
}

// handleProcessingLog serves GET /api/processing-log?response_id=.
func (s *Server) handleProcessingLog(w http.ResponseWriter, r *http.Request) {
	rows, err := s.service.ProcessingLog(r.Context(), r.URL.Query().Get("response_id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if rows == nil {
		rows = []table.Row{}
	}
	writeJSON(w, r, http.StatusOK, rows)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := DefaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := positiveInt(v, "limit")
		if err != nil {
			respondError(w, r, err)
			return
		}
		limit = n
	}

	runs := s.service.History().Recent(limit)
	if runs == nil {
		runs = []core.RunReport{}
	}
	writeJSON(w, r, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	report, ok := s.service.History().Find(runID)
	if !ok {
		respondError(w, r, fmt.Errorf("run %s: %w", runID, core.ErrRecordNotFound))
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

func positiveInt(v, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s %q: %w", name, v, errInvalidParam)
	}
	return n, nil
}

package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/spregistry/internal/core"
)

// handleReconcile runs a batch posted as the request body.
// ?dry_run=true reconciles without committing or notifying.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	dryRun := false
	if v := r.URL.Query().Get("dry_run"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, r, fmt.Errorf("dry_run %q: %w", v, errInvalidParam))
			return
		}
		dryRun = b
	}

	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBatchBytes)
	defer body.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	report, err := s.service.Run(ctx, body, core.RunOptions{DryRun: dryRun, Trigger: "http"})
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = fmt.Errorf("batch too large (limit %d bytes): %w", maxErr.Limit, maxErr)
		}
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, report)
}

package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/skydrive/internal/common"
)

// handleShare redirects to a signed download link of a shared file.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	url, err := s.shares.ResolveShare(r.Context(), id)
	switch {
	case err == nil:
		http.Redirect(w, r, url, http.StatusFound)
	case errors.Is(err, common.ErrorNotFound):
		http.Error(w, "file not found or no longer shared", http.StatusNotFound)
	default:
		s.logger.Error(r.Context(), "share resolution failed", "id", id, "error", err)
		http.Error(w, "could not create download link", http.StatusBadGateway)
	}
}

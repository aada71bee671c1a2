package http

import (
	"net/http"
	"strconv"

	"github.com/fjod/go_storefront/internal/service"
)

type SearchResponse struct {
	Index int `json:"index"`
}

// Search looks key up in the poster-number list.
func Search(w http.ResponseWriter, r *http.Request) {
	key, err := strconv.Atoi(r.URL.Query().Get("key"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_key", "key must be an integer")
		return
	}
	respondJSON(w, http.StatusOK, &SearchResponse{Index: service.LinearSearch(service.PosterNumbers, key)})
}

package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/service"
)

// CatalogHandler passes the caller's listening data through from the
// music catalog.
type CatalogHandler struct {
	catalogService *service.CatalogService
	logger         *zap.Logger
}

func NewCatalogHandler(catalogService *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger.With(zap.String("component", "catalog_handler")),
	}
}

func (h *CatalogHandler) TopArtists(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(caller model.Caller) (json.RawMessage, error) {
		q := r.URL.Query()
		return h.catalogService.TopArtists(r.Context(), caller, q.Get("time_range"), q.Get("limit"))
	})
}

func (h *CatalogHandler) TopTracks(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(caller model.Caller) (json.RawMessage, error) {
		q := r.URL.Query()
		return h.catalogService.TopTracks(r.Context(), caller, q.Get("time_range"), q.Get("limit"))
	})
}

func (h *CatalogHandler) RecentlyPlayed(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(caller model.Caller) (json.RawMessage, error) {
		return h.catalogService.RecentlyPlayed(r.Context(), caller, r.URL.Query().Get("limit"))
	})
}

// CurrentlyPlaying answers null when nothing is playing.
func (h *CatalogHandler) CurrentlyPlaying(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(caller model.Caller) (json.RawMessage, error) {
		return h.catalogService.CurrentlyPlaying(r.Context(), caller)
	})
}

func (h *CatalogHandler) serve(w http.ResponseWriter, r *http.Request, fetch func(model.Caller) (json.RawMessage, error)) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	body, err := fetch(caller)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch listening data")
		return
	}
	if body == nil {
		body = json.RawMessage("null")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

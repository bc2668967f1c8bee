package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/wordqueue/internal/api/shared"
	"github.com/phrazzld/wordqueue/internal/platform/logger"
	"github.com/phrazzld/wordqueue/internal/store"
)

// WordHandler serves the word listing.
type WordHandler struct {
	words  store.WordStore
	logger *slog.Logger
}

// NewWordHandler creates a new WordHandler
func NewWordHandler(words store.WordStore, logger *slog.Logger) *WordHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for WordHandler")
	}

	return &WordHandler{
		words:  words,
		logger: logger.With(slog.String("component", "word_handler")),
	}
}

// ListWords handles GET /words requests.
// It returns rows [start, end) of the word table, optionally sorted, plus
// the total number of stored words.
func (h *WordHandler) ListWords(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	params, err := parseListWordsQuery(r).toListParams()
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	page, err := h.words.List(r.Context(), params)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	data := make([]WordResponse, 0, len(page.Items))
	for _, word := range page.Items {
		data = append(data, WordResponse{
			Filename: word.Filename,
			Filepath: word.Filepath,
			Token:    word.Token,
		})
	}

	log.Debug("listed words",
		slog.Int("offset", params.Offset),
		slog.Int("returned", len(data)),
		slog.Int("count", page.Count))
	shared.RespondWithJSON(w, r, http.StatusOK, WordListResponse{Data: data, Count: page.Count})
}

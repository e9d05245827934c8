package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
)

// DeckGet returns the current deck snapshot. While a generation is still
// running the slide list is partial and only ever grows; clients may poll
// this instead of consuming the stream.
func (a *App) DeckGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deck, err := a.Decks.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "deck not found")
			return
		}
		a.Logger.Error().Err(err).Str("deck_id", id).Msg("load deck failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not load deck")
		return
	}
	a.json(w, http.StatusOK, deck)
}

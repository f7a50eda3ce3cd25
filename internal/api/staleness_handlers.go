package api

import (
	"errors"
	"net/http"

	"github.com/rflorenc/inventory-console/internal/rbac"
	"github.com/rflorenc/inventory-console/internal/staleness"
)

// stalenessView is the card plus the pieces derived from it.
type stalenessView struct {
	*staleness.Card
	Tabs        []staleness.Tab `json:"tabs"`
	ActiveKeys  []string        `json:"active_keys"`
	EditTooltip string          `json:"edit_tooltip,omitempty"`
}

func newStalenessView(card *staleness.Card) stalenessView {
	v := stalenessView{
		Card:       card,
		Tabs:       card.Tabs(),
		ActiveKeys: card.ActiveKeys(),
	}
	if v.Tabs == nil {
		v.Tabs = []staleness.Tab{}
	}
	if !card.CanModify {
		v.EditTooltip = staleness.EditDeniedTooltip
	}
	return v
}

func (s *Server) GetStaleness(w http.ResponseWriter, r *http.Request) {
	card, err := s.Staleness.Load(r.Context(), s.allowed(r.Context(), rbac.ModifyStaleness()))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStalenessView(card))
}

// SaveStaleness applies submitted values to a freshly loaded card and
// confirms the save, the same steps the card's edit flow goes through.
func (s *Server) SaveStaleness(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Values    map[string]int `json:"values"`
		ActiveTab int            `json:"active_tab"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	ctx := r.Context()
	card, err := s.Staleness.Load(ctx, s.allowed(ctx, rbac.ModifyStaleness()))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	if err := card.ToggleEdit(); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	if err := card.SelectTab(req.ActiveTab); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for key, days := range req.Values {
		if err := card.SetField(key, days); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if !card.FormValid {
		writeJSON(w, http.StatusUnprocessableEntity, newStalenessView(card))
		return
	}

	card.ToggleModal()
	if err := s.Staleness.Save(ctx, card); err != nil {
		if errors.Is(err, staleness.ErrNotPermitted) {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStalenessView(card))
}

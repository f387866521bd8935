package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"donationhub/internal/domain"
)

// GetAccount returns the caller's own profile; other ids are forbidden.
func (a *App) GetAccount(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.actor(r)
	if !ok {
		a.Fail(w, r, domain.ErrUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	if id != actor.ID {
		a.Fail(w, r, domain.ErrForbidden)
		return
	}
	a.writeAccount(w, r, id)
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.actor(r)
	if !ok {
		a.Fail(w, r, domain.ErrUnauthorized)
		return
	}
	a.writeAccount(w, r, actor.ID)
}

func (a *App) writeAccount(w http.ResponseWriter, r *http.Request, id string) {
	acc, err := a.Accounts.GetByID(r.Context(), id)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toAccountDTO(*acc))
}

package handler

import (
	"net/http"

	"github.com/vinnodrive/vinnodrive/internal/ctxkeys"
	"github.com/vinnodrive/vinnodrive/internal/model"
	"github.com/vinnodrive/vinnodrive/internal/service"
)

type ShareHandler struct {
	shareService *service.ShareService
}

func NewShareHandler(shareService *service.ShareService) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
	}
}

func (h *ShareHandler) Grant(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.SessionFrom(r.Context())

	id, ok := pathID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, CodeNotFound, "File not found")
		return
	}

	username := r.FormValue("username")
	if username == "" {
		WriteError(w, http.StatusBadRequest, CodeValidation, "Username is required")
		return
	}

	grant, err := h.shareService.Grant(r.Context(), session.UserID, id, username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, grant)
}

func (h *ShareHandler) Grantees(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.SessionFrom(r.Context())

	id, ok := pathID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, CodeNotFound, "File not found")
		return
	}

	grantees, err := h.shareService.Grantees(r.Context(), session.UserID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if grantees == nil {
		grantees = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"usernames": grantees})
}

func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.SessionFrom(r.Context())

	id, ok := pathID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, CodeNotFound, "File not found")
		return
	}

	err := h.shareService.Revoke(r.Context(), session.UserID, id, r.PathValue("username"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SharedWithMe lists files other users granted to the caller.
func (h *ShareHandler) SharedWithMe(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.SessionFrom(r.Context())

	files, err := h.shareService.SharedWith(r.Context(), session.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if files == nil {
		files = []*model.SharedFile{}
	}
	// The owner's public link is not the grantee's to see.
	for _, f := range files {
		f.ShareToken = nil
	}

	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

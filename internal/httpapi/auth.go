package httpapi

import (
	"net/http"
)

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	id, err := h.ids.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, identityResponse{ID: id.ID, Name: id.Name, Email: id.Email})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	id, err := h.ids.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, identityResponse{ID: id.ID, Name: id.Name, Email: id.Email})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.ids.Logout(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	id, err := h.ids.Current(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if id == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, identityResponse{ID: id.ID, Name: id.Name, Email: id.Email})
}

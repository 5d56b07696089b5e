package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grievance-portal/api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps register/login/reset responses.
type AuthEnvelope struct {
	Token string    `json:"token,omitempty"`
	User  *SafeUser `json:"user,omitempty"`
	Error string    `json:"error,omitempty"`
}

// SafeUser is the user shape exposed over the API. Credential material and
// reset-token fields never leave the server.
type SafeUser struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Phone        string           `json:"phone"`
	Role         string           `json:"role"`
	DepartmentID string           `json:"department_id,omitempty"`
	Address      string           `json:"address,omitempty"`
	Location     *domain.GeoPoint `json:"location,omitempty"`
	Verified     bool             `json:"verified"`
	Active       bool             `json:"active"`
}

func toSafeUser(u *domain.User) *SafeUser {
	if u == nil {
		return nil
	}
	return &SafeUser{
		ID:           u.UserID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         u.Role,
		DepartmentID: u.DepartmentID,
		Address:      u.Address,
		Location:     u.Location,
		Verified:     u.Verified,
		Active:       u.Active,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors onto HTTP status codes. Anything
// unrecognized is a 500 with a generic body so internal details stay out of
// responses.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrInvalidOrExpired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

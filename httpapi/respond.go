package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hypergopher/soundbite"
)

func (a *API) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("failed to encode response", "error", err)
	}
}

type errorBody struct {
	Errors map[string][]string `json:"errors"`
}

// respondError maps service errors onto HTTP statuses. Validation failures
// carry their field messages; everything unexpected is logged and hidden
// behind a 500.
func (a *API) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *soundbite.ValidationError
	if errors.As(err, &verr) {
		a.respondJSON(w, http.StatusUnprocessableEntity, errorBody{Errors: verr.Fields})
		return
	}

	switch {
	case errors.Is(err, soundbite.ErrUnauthorized),
		errors.Is(err, soundbite.ErrInvalidCredentials):
		a.respondJSON(w, http.StatusUnauthorized, messageBody(err))
	case errors.Is(err, soundbite.ErrForbidden):
		a.respondJSON(w, http.StatusForbidden, messageBody(err))
	case errors.Is(err, soundbite.ErrPostNotFound),
		errors.Is(err, soundbite.ErrCommentNotFound),
		errors.Is(err, soundbite.ErrUserNotFound):
		a.respondJSON(w, http.StatusNotFound, messageBody(err))
	default:
		a.logger.Error("internal error", "method", r.Method, "path", r.URL.Path, "error", err)
		a.respondJSON(w, http.StatusInternalServerError, errorBody{
			Errors: map[string][]string{"server": {"internal error"}},
		})
	}
}

func messageBody(err error) errorBody {
	return errorBody{Errors: map[string][]string{"message": {err.Error()}}}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return soundbite.NewValidationError("body", "must be valid JSON")
	}
	return nil
}

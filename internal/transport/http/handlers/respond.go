package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/service"
	"github.com/vedran77/concorde/internal/transport/http/middleware"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

// requestAction resolves a pending request on behalf of the actor.
type requestAction func(ctx context.Context, actor domain.Actor, requestID uuid.UUID) error

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": fields,
		},
	})
}

// respondError maps an engine error to its HTTP form. Only unexpected
// failures are logged.
func respondError(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeValidationErrors(w, verr.Fields)
		return
	}

	switch {
	case errors.Is(err, domain.ErrSelfBan):
		writeError(w, http.StatusBadRequest, "SELF_BAN", err.Error())
	case errors.Is(err, domain.ErrSelfTarget):
		writeError(w, http.StatusBadRequest, "SELF_TARGET", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, domain.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "DUPLICATE_REQUEST", err.Error())
	case errors.Is(err, domain.ErrAlreadyFriends):
		writeError(w, http.StatusConflict, "ALREADY_FRIENDS", err.Error())
	case errors.Is(err, domain.ErrNotMember):
		writeError(w, http.StatusConflict, "NOT_MEMBER", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", "The record was modified concurrently, try again")
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email is already registered")
	case errors.Is(err, service.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "USERNAME_TAKEN", "Username is already taken")
	case errors.Is(err, domain.ErrInvalidCredential):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	default:
		log.Error(op, zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// actorFrom returns the actor the auth middleware resolved.
func actorFrom(r *http.Request) domain.Actor {
	actor, _ := middleware.GetActor(r.Context())
	return actor
}

func pageFromQuery(r *http.Request) (service.PageInput, error) {
	var page service.PageInput
	q := r.URL.Query()

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"page", &page.Page},
		{"limit", &page.Limit},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, domain.NewValidationError(p.name, "must be a number")
		}
		*p.dst = n
	}
	return page, nil
}

package validators

import (
	"net/http"
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxQueryLen = 100

// ParseQueryString returns the sanitised query value, rejecting oversized input.
func ParseQueryString(r *http.Request, key string) (string, error) {
	raw := r.URL.Query().Get(key)
	if utf8.RuneCountInString(strings.TrimSpace(raw)) > maxQueryLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "query parameter too long").WithDetails(map[string]any{"field": key, "max": maxQueryLen})
	}
	return SanitizeSearch(raw, maxQueryLen), nil
}

// ParseUUIDParam reads a chi path parameter as a UUID.
func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name).WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/budgetnest/internal/auth"
	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error maps domain errors to status codes. Unknown errors are logged and
// reported as 500 without details.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", status)

		return
	}

	http.Error(w, err.Error(), status)
}

func Status(err error) int {
	switch {
	case errors.Is(err, budget.ErrInvalidCategory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, budget.ErrValidation), errors.Is(err, budget.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, budget.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	}

	return http.StatusInternalServerError
}

// Period reads the {year} and {month} URL parameters. month accepts a name or a number.
func Period(r *http.Request) (budget.Period, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 {
		return budget.Period{}, fmt.Errorf("%w: invalid year %q", budget.ErrValidation, chi.URLParam(r, "year"))
	}

	month, err := budget.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		return budget.Period{}, err
	}

	return budget.Period{Month: month, Year: year}, nil
}

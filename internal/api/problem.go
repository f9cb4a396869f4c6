package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/genscript/internal/gateway"
	"github.com/hyperengineering/genscript/internal/store"
	"github.com/hyperengineering/genscript/internal/validation"
)

const problemBase = "https://genscript.dev/errors/"

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

type problemType struct {
	typeURI string
	title   string
}

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]problemType{
	http.StatusUnauthorized:          {problemBase + "unauthorized", "Unauthorized"},
	http.StatusBadRequest:            {problemBase + "bad-request", "Bad Request"},
	http.StatusNotFound:              {problemBase + "not-found", "Not Found"},
	http.StatusConflict:              {problemBase + "conflict", "Conflict"},
	http.StatusInternalServerError:   {problemBase + "internal-error", "Internal Server Error"},
	http.StatusUnprocessableEntity:   {problemBase + "validation-error", "Validation Error"},
	http.StatusServiceUnavailable:    {problemBase + "service-unavailable", "Service Unavailable"},
	http.StatusBadGateway:            {problemBase + "gateway-error", "Bad Gateway"},
	http.StatusGatewayTimeout:        {problemBase + "gateway-timeout", "Gateway Timeout"},
	http.StatusRequestEntityTooLarge: {problemBase + "payload-too-large", "Payload Too Large"},
}

// emptyOutputType distinguishes an empty gateway answer from other 502s.
var emptyOutputType = problemType{problemBase + "empty-output", "Empty Output"}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	pt, ok := problemTypes[status]
	if !ok {
		pt = problemType{problemBase + "unknown", http.StatusText(status)}
	}
	writeProblem(w, r, pt, status, detail)
}

func writeProblem(w http.ResponseWriter, r *http.Request, pt problemType, status int, detail string) {
	p := Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	pt := problemTypes[http.StatusUnprocessableEntity]

	p := ProblemWithErrors{
		Problem: Problem{
			Type:     pt.typeURI,
			Title:    pt.title,
			Status:   http.StatusUnprocessableEntity,
			Detail:   detail,
			Instance: r.URL.Path,
		},
		Errors: errs,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapStoreError converts domain errors to Problem Details responses.
func MapStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Resource not found")
	case errors.Is(err, store.ErrInvalidIdea):
		WriteProblem(w, r, http.StatusUnprocessableEntity, "Idea is missing required fields")
	case errors.Is(err, store.ErrDuplicateID):
		WriteProblem(w, r, http.StatusConflict, "An idea with this id already exists")
	default:
		// Never expose internal error details to client
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}

// MapGenerateError converts generation failures to Problem Details responses.
// The upstream status is reported but the upstream body is not.
func MapGenerateError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	var gwErr *gateway.GatewayError

	switch {
	case errors.As(err, &verrs):
		WriteProblemWithErrors(w, r, "Request contains invalid fields", verrs)
	case errors.Is(err, gateway.ErrEmptyOutput):
		writeProblem(w, r, emptyOutputType, http.StatusBadGateway,
			"The model returned an empty response. Try a different topic.")
	case errors.Is(err, context.DeadlineExceeded):
		WriteProblem(w, r, http.StatusGatewayTimeout, "LLM gateway did not respond in time")
	case errors.As(err, &gwErr):
		detail := "LLM gateway unreachable"
		if gwErr.StatusCode != 0 {
			detail = fmt.Sprintf("LLM gateway returned status %d", gwErr.StatusCode)
		}
		WriteProblem(w, r, http.StatusBadGateway, detail)
	default:
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}

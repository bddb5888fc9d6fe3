package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/weblithic/site/internal/blog"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// resultStatus maps a failed envelope to its HTTP status.
func resultStatus(kind blog.ErrorKind) int {
	switch kind {
	case blog.KindValidation:
		return http.StatusBadRequest
	case blog.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeResult writes res with okStatus on success or the status for its kind.
func writeResult[T any](w http.ResponseWriter, okStatus int, res blog.Result[T]) {
	if !res.Success {
		writeJSON(w, resultStatus(res.Kind), res)
		return
	}
	writeJSON(w, okStatus, res)
}

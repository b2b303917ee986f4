// Package respond writes JSON bodies for the HTTP handlers.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	svcErr "github.com/oggyb/swipe-server/internal/errors"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, map[string]string{"message": msg})
}

// Error maps err to its HTTP status and writes it as a message body.
// Server-side failures are logged, client errors are not.
func Error(w http.ResponseWriter, log *slog.Logger, err error) {
	httpErr := svcErr.Map(err)
	if httpErr.Status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed", "status", httpErr.Status, "err", err)
	}
	Message(w, httpErr.Status, httpErr.Message)
}

// Decode reads a JSON body into v. An empty body leaves v untouched.
func Decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return svcErr.InvalidArgument("invalid JSON body")
	}
	return nil
}

// PathID parses the named path wildcard as a positive id.
func PathID(r *http.Request, name string) (uint64, error) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || id == 0 {
		return 0, svcErr.InvalidArgument(name + " must be a positive integer")
	}
	return id, nil
}

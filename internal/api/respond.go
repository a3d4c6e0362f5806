package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/lox/crimelens/internal/apperr"
)

const maxBodyBytes = 8 << 20

type errorBody struct {
	Error string `json:"error"`
	Trace string `json:"trace,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err onto the error envelope: caller mistakes are 400 with
// the message only, everything else is 500 with the request id as trace.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var cerr *apperr.ClientInputError
	if errors.As(err, &cerr) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: cerr.Message})
		return
	}

	id := requestID(r.Context())
	s.log.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", id),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Trace: id})
}

// decodeJSON reads a JSON request body into v. Malformed bodies are client
// errors; an empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.ClientInput("body", "invalid JSON body: %v", err)
	}
	return nil
}

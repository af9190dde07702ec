package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/vango-dev/chrono/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err as a coded payload. A zero status is derived from the
// error's code and category.
func writeError(w http.ResponseWriter, err error, status int) {
	ce := errors.FromError(err, "E160")
	if status == 0 {
		status = statusFor(ce)
	}
	writeJSON(w, status, ce.Payload())
}

func statusFor(ce *errors.ChronoError) int {
	switch ce.Code {
	case "E010", "E020":
		return http.StatusNotFound
	case "E011":
		return http.StatusServiceUnavailable
	case "E024":
		return http.StatusBadGateway
	case "E086":
		return http.StatusConflict
	}
	switch ce.Category {
	case errors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case errors.CategoryProtocol:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeJSON reads one JSON value from the body into v. An empty body leaves v
// untouched when allowEmpty is set.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if allowEmpty && stderrors.Is(err, io.EOF) {
			return nil
		}
		return errors.New("E061").WithDetail(err.Error()).Wrap(err)
	}
	if dec.More() {
		return errors.New("E061").WithDetail("unexpected data after JSON body")
	}
	return nil
}

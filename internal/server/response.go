package server

import (
	"encoding/json"
	"errors"
	"net/http"

	perr "github.com/matzehuels/flowcanvas/pkg/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    perr.Code `json:"code"`
	Message string    `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		s.logger.Warn("encode response", "err", err)
	}
}

// writeError maps coded errors onto HTTP statuses. Uncoded errors are
// internal and their text is not exposed.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := perr.GetCode(err)
	status := statusFor(code)
	msg := perr.UserMessage(err)
	if code == "" {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			code, status, msg = perr.ErrCodeInvalidInput, http.StatusRequestEntityTooLarge, "request body too large"
		} else {
			code, msg = perr.ErrCodeInternal, "internal error"
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

func statusFor(code perr.Code) int {
	switch code {
	case perr.ErrCodeInvalidInput, perr.ErrCodeInvalidName:
		return http.StatusBadRequest
	case perr.ErrCodeParse:
		return http.StatusUnprocessableEntity
	case perr.ErrCodeNotFound:
		return http.StatusNotFound
	case perr.ErrCodeDuplicate, perr.ErrCodeCycle:
		return http.StatusConflict
	case perr.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

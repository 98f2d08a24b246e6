package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/dailymemedigest/memefactory/pkg/errors"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

// envelope is the common JSON response shape.
type envelope map[string]any

// internalError is sent when a response body cannot be encoded.
var internalError = []byte(`{"code":"` + string(errors.ErrCodeInternal) + `","error":"Internal server error","success":false}` + "\n")

// writeJSON encodes body before the status goes out, so a body that cannot
// be encoded turns into a 500 envelope instead of an empty response.
func writeJSON(w http.ResponseWriter, status int, body envelope) {
	data, err := json.Marshal(body)
	if err != nil {
		status, data = http.StatusInternalServerError, internalError
	} else {
		data = append(data, '\n')
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// ok writes a 200 with success set.
func ok(w http.ResponseWriter, body envelope) {
	if body == nil {
		body = envelope{}
	}
	body["success"] = true
	writeJSON(w, http.StatusOK, body)
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, envelope{"success": false, "error": msg, "code": code})
}

// fail writes err with the status its code maps to. Internal failures keep
// their details in the log, not the response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" && stderrors.Is(err, context.DeadlineExceeded) {
		code = errors.ErrCodeTimeout
		err = errors.Wrap(code, err, "request timed out")
	}
	status := errors.HTTPStatus(code)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	if status >= 500 {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "code", code, "err", err)
		if code == errors.ErrCodeInternal || code == errors.ErrCodeStorage {
			msg = "Internal server error"
		}
	}
	var rl *errors.RateLimitedError
	if stderrors.As(err, &rl) && rl.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter))
	}
	writeError(w, status, msg, string(code))
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.New(errors.ErrCodeInvalidInput, "No data provided")
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	return nil
}

// queryInt parses an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be an integer", name)
	}
	return n, nil
}

// queryFloat parses a finite number in [0, 100000] from the query, returning
// def when absent.
func queryFloat(r *http.Request, name string, def float64) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > 1e5 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a number between 0 and 100000", name)
	}
	return f, nil
}

// Package jsonresp writes the API envelope:
//
//	{"success": true,  "data": ..., "messages": [...]}
//	{"success": false, "error": "...", "code": "...", "fields": {...}}
package jsonresp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/notify"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// Envelope is the body of every API response.
type Envelope struct {
	Success   bool              `json:"success"`
	Data      any               `json:"data,omitempty"`
	Error     string            `json:"error,omitempty"`
	Code      string            `json:"code,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Messages  []notify.Message  `json:"messages,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// Write encodes env with status.
func Write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, data any) {
	Write(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, data any) {
	Write(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// OKWithMessages writes a success envelope carrying the notifier output.
func OKWithMessages(w http.ResponseWriter, data any, c *notify.Collector) {
	env := Envelope{Success: true, Data: data}
	if c != nil {
		env.Messages = c.Messages()
	}
	Write(w, http.StatusOK, env)
}

// Fail writes a failure envelope with an explicit status and code.
func Fail(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	Write(w, status, Envelope{Error: msg, Code: code, RequestID: reqID(r)})
}

// FromError maps err to a failure envelope. *apperr.Error values keep their
// status, code, message and fields; anything else is logged and reported
// as a 500 without leaking the cause.
func FromError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	if ae, ok := apperr.As(err); ok {
		if ae.Status >= 500 && log != nil {
			log.Warn("collaborator failure", zap.String("code", ae.Code), zap.Error(err))
		}
		Write(w, ae.Status, Envelope{
			Error:     ae.Message,
			Code:      ae.Code,
			Fields:    ae.Fields,
			RequestID: reqID(r),
		})
		return
	}
	if log != nil {
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	Fail(w, r, http.StatusInternalServerError, "INTERNAL", "Something went wrong. Please try again.")
}

// Decode reads a JSON body into dst. Unknown fields, trailing data and
// oversize bodies are validation errors.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.Validation("Request body is empty.", nil)
		case errors.As(err, &mbe):
			return apperr.Validation("Request body is too large.", nil)
		default:
			return apperr.Validation("Request body is not valid JSON: "+err.Error(), nil)
		}
	}
	if dec.More() {
		return apperr.Validation("Request body must contain a single JSON object.", nil)
	}
	return nil
}

func reqID(r *http.Request) string {
	if r == nil {
		return ""
	}
	return middleware.GetReqID(r.Context())
}

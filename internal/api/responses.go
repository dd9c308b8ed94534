package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorKind classifies request failures onto HTTP statuses.
type ErrorKind int

const (
	KindInvalidRequest ErrorKind = iota
	KindNotFound
	KindUnavailable
	KindInternal
)

// Status returns the HTTP status for the kind.
func (k ErrorKind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// APIError is a request failure ready to be encoded on the wire.
type APIError struct {
	Kind    ErrorKind
	Message string
}

func (e *APIError) Error() string { return e.Message }

func apiErr(kind ErrorKind, msg string) *APIError {
	return &APIError{Kind: kind, Message: msg}
}

// errorEnvelope mirrors OpenAI's error schema. Type is always
// "invalid_request_error" and code is always null, matching what
// transcription clients expect regardless of status.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

// transcriptionResponse is the success body for a transcription.
type transcriptionResponse struct {
	Text string `json:"text"`
}

// modelList is the GET /v1/models body.
type modelList struct {
	Object string       `json:"object"`
	Data   []modelEntry `json:"data"`
}

type modelEntry struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

// WriteJSON writes v as a UTF-8 JSON body with an exact Content-Length.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		// Marshal failures on these fixed shapes indicate a programming
		// error; answer with a minimal envelope rather than a broken body.
		body = []byte(`{"error":{"message":"encoding failure","type":"invalid_request_error","code":null}}`)
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	w.Write(body)
}

// WriteError writes the OpenAI error envelope for a status and message.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorEnvelope{Error: errorBody{
		Message: msg,
		Type:    "invalid_request_error",
		Code:    nil,
	}})
}

// WriteAPIError writes a classified error.
func WriteAPIError(w http.ResponseWriter, e *APIError) {
	WriteError(w, e.Kind.Status(), e.Message)
}

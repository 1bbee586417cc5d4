package server

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// Engine.io error codes returned in 400 responses.
const (
	codeUnknownTransport    = 0
	codeUnknownSID          = 1
	codeBadRequest          = 3
	codeUnsupportedProtocol = 5
)

var errorMessages = map[int]string{
	codeUnknownTransport:    "Transport unknown",
	codeUnknownSID:          "Session ID unknown",
	codeBadRequest:          "Bad request",
	codeUnsupportedProtocol: "Unsupported protocol version",
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status, code int) {
	body, err := json.Marshal(errorBody{Code: code, Message: errorMessages[code]})
	if err != nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

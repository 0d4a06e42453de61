package server

import (
	"encoding/json"
	"net/http"
	"time"
)

type envelope struct {
	Data     interface{} `json:"data"`
	Metadata metadata    `json:"metadata"`
}

type metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: data, Metadata: metadata{Timestamp: time.Now().UTC()}})
}

type apiError struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: apiError{Error: err.Error()}, Metadata: metadata{Timestamp: time.Now().UTC()}})
}

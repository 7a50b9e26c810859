package model

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope for every JSON API reply.
type Response[T any] struct {
	Data    T      `json:"data"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Event types.
const (
	EventClass = "class"
	EventTheme = "theme"
	EventError = "error"
)

// ClassEvent tells a client to add or remove a class on its document root.
type ClassEvent struct {
	Type string `json:"type"`
	Name string `json:"name"`
	On   bool   `json:"on"`
}

// ThemeEvent carries the active theme mode.
type ThemeEvent struct {
	Type string `json:"type"`
	Mode string `json:"mode"`
	Dark bool   `json:"dark"`
}

// ErrorEvent reports a rejected client message.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// WriteData writes v wrapped in a successful Response.
func WriteData[T any](w http.ResponseWriter, status int, v T) {
	writeJSON(w, status, Response[T]{Data: v, Success: true})
}

// WriteError writes a failed Response carrying msg.
func WriteError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response[any]{Success: false, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Package wsfeed talks to a remote inventory agent over a websocket. The
// client implements source.Source; the server exposes any source.Source.
//
// Every frame is one JSON object. Requests carry an id that the matching
// response echoes, so several requests may be in flight on one connection.
package wsfeed

import (
	"errors"
	"time"

	"github.com/artpar/awsbrowse/internal/resources"
	"github.com/artpar/awsbrowse/internal/source"
)

// Operations.
const (
	OpList     = "list"
	OpChildren = "children"
)

// Error codes carried in responses.
const (
	CodeNotFound    = "not_found"
	CodeUnknownKind = "unknown_kind"
	CodeClosed      = "closed"
	CodeBadRequest  = "bad_request"
)

// ErrBadRequest is returned when the agent did not understand a request.
var ErrBadRequest = errors.New("bad request")

// Request asks the agent for a listing or for children.
type Request struct {
	ID   string         `json:"id"`
	Op   string         `json:"op"`
	Kind resources.Kind `json:"kind"`
	Key  string         `json:"key,omitempty"`
}

// Response answers one Request.
type Response struct {
	ID        string               `json:"id"`
	Resources []resources.Resource `json:"resources,omitempty"`
	Error     string               `json:"error,omitempty"`
	Code      string               `json:"code,omitempty"`
}

// RemoteError is an error reported by the agent. It matches the source
// sentinel named by its code under errors.Is.
type RemoteError struct {
	Message string
	Code    string
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case CodeNotFound:
		return source.ErrNotFound
	case CodeUnknownKind:
		return source.ErrUnknownKind
	case CodeClosed:
		return source.ErrClosed
	case CodeBadRequest:
		return ErrBadRequest
	}
	return nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, source.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, source.ErrUnknownKind):
		return CodeUnknownKind
	case errors.Is(err, source.ErrClosed):
		return CodeClosed
	case errors.Is(err, ErrBadRequest):
		return CodeBadRequest
	}
	return ""
}

// Config holds connection settings shared by the client and the server.
type Config struct {
	// ConnectTimeout bounds the websocket handshake.
	ConnectTimeout time.Duration

	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration

	// MaxMessageSize is the largest frame accepted, in bytes.
	MaxMessageSize int64

	// MaxConcurrent bounds the requests the server handles at once per
	// connection.
	MaxConcurrent int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout: 10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 16 * 1024 * 1024, // 16 MB
		MaxConcurrent:  8,
	}
}

// Package backend defines the record-API collaborator contract consumed by
// the FTP command handlers, plus its HTTP and in-memory implementations.
//
// The engine only ever calls a Client with an authenticated session's
// credential and a validated absolute virtual path; it never interprets the
// response body beyond the typed fields below.
package backend

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors the command layer maps onto FTP status codes.
var (
	// ErrNotFound means no record or directory exists at the path.
	ErrNotFound = errors.New("backend: record not found")
	// ErrRejected means the backend refused the operation (authorization,
	// schema constraint, read-only field).
	ErrRejected = errors.New("backend: operation rejected")
)

// Entry is one line of a directory listing.
type Entry struct {
	Name    string    `json:"name"`
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Info describes a single record or directory.
type Info struct {
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Client is the request/response contract with the remote record API.
// Implementations must be safe for concurrent use by independent sessions.
type Client interface {
	// List returns the entries directly under a directory path.
	List(ctx context.Context, path, credential string) ([]Entry, error)
	// Retrieve returns the full content of the record at path.
	Retrieve(ctx context.Context, path, credential string) ([]byte, error)
	// Store writes content to path, replacing any existing record.
	Store(ctx context.Context, path string, content []byte, credential string) error
	// Append appends content to the record at path, creating it if absent.
	Append(ctx context.Context, path string, content []byte, credential string) error
	// Delete removes the record at path.
	Delete(ctx context.Context, path, credential string) error
	// Stat returns metadata for the record or directory at path.
	Stat(ctx context.Context, path, credential string) (Info, error)
}

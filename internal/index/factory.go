// Package index: factory for creating vector index clients.
package index

import "fmt"

// Type identifies a vector index implementation.
type Type string

const (
	// TypeMemory is the in-process brute-force index. Good for tests and
	// small datasets.
	TypeMemory Type = "memory"
	// TypeChroma talks to an external Chroma server over REST.
	TypeChroma Type = "chroma"
)

// Options holds construction parameters for a vector index.
type Options struct {
	Type       string
	Host       string
	Port       int
	Collection string
}

// New creates a vector index of the configured type.
// Supported types: "memory" (default), "chroma".
func New(opts Options) (VectorIndex, error) {
	switch Type(opts.Type) {
	case TypeMemory, "":
		return NewMemoryIndex(opts.Collection), nil
	case TypeChroma:
		host := opts.Host
		if host == "" {
			host = "localhost"
		}
		port := opts.Port
		if port == 0 {
			port = 8000
		}
		return NewChromaIndex(host, port, opts.Collection), nil
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, chroma)", opts.Type)
	}
}

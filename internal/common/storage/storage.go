// Package storage provides the object store the pipeline writes generated
// bodies into. Records in the document store reference objects by the URI
// returned from WriteBytes; the object write always happens first so a
// record never points at a missing body.
package storage

import "context"

// ObjectStore writes and reads opaque bodies by key and hands back a
// stable, retrievable URI for each written object.
type ObjectStore interface {
	// WriteBytes stores data under key and returns the object URI.
	WriteBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// ReadBytes returns the body stored under key.
	ReadBytes(ctx context.Context, key string) ([]byte, error)
	// PublicURL returns a browser-viewable URL for key.
	PublicURL(key string) string
}

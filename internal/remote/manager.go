// Package remote stores file bytes on a remote backend behind one contract.
//
// Write and Delete never return errors: a backend failure is logged and
// reported as false. URL is pure and performs no I/O.
package remote

import (
	"context"
	"mime"
	"path"
	"strings"
)

// Manager writes, deletes and addresses objects on one backend.
type Manager interface {
	// Write stores contents under p. False means the write did not happen.
	Write(ctx context.Context, p string, contents []byte) bool
	// Delete removes the object at p. Missing objects count as deleted.
	Delete(ctx context.Context, p string) bool
	// URL returns the public URL of p.
	URL(p string) string
	// Name identifies the backend in logs and metrics.
	Name() string
}

// URLer is the read-only part of Manager used by URL resolution.
type URLer interface {
	URL(p string) string
}

// joinKey places p under prefix. An empty prefix leaves p untouched.
func joinKey(prefix, p string) string {
	prefix = strings.Trim(prefix, "/")
	p = strings.TrimLeft(p, "/")
	if prefix == "" {
		return p
	}
	return prefix + "/" + p
}

func contentType(p string) string {
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Package delivery builds the public URLs end users fetch stored files from.
// Nothing here performs I/O.
package delivery

import (
	"strings"

	"github.com/dmitrijs2005/remotefiles/internal/remote"
)

// DefaultVariant is used when no variant is configured or requested.
const DefaultVariant = "default"

// ImageDelivery describes Cloudflare Images delivery URLs:
// {URL}/{Hash}/{image id}/{Variant}.
type ImageDelivery struct {
	URL     string
	Hash    string
	Variant string
}

// Resolver builds public URLs for stored files and CDN images.
type Resolver struct {
	files  remote.URLer
	images *ImageDelivery
}

// NewResolver builds a Resolver. images may be nil when image delivery is not
// configured; ImageURL then always returns "".
func NewResolver(files remote.URLer, images *ImageDelivery) *Resolver {
	return &Resolver{files: files, images: images}
}

// FileURL returns the backend URL of key, with ".ext" appended when ext is
// set. An empty key yields "".
func (r *Resolver) FileURL(key, ext string) string {
	if key == "" || r.files == nil {
		return ""
	}
	u := r.files.URL(key)
	if ext != "" {
		u += "." + ext
	}
	return u
}

// File is FileURL for templates that only render complete references: it
// returns "" unless both key and ext are set.
func (r *Resolver) File(key, ext string) string {
	if key == "" || ext == "" {
		return ""
	}
	return r.FileURL(key, ext)
}

// ImageURL returns the delivery URL of id using the configured variant.
func (r *Resolver) ImageURL(id string) string {
	return r.ImageVariantURL(id, "")
}

// ImageVariantURL returns the delivery URL of id for variant, falling back to
// the configured variant and then to DefaultVariant.
func (r *Resolver) ImageVariantURL(id, variant string) string {
	if id == "" || r.images == nil || r.images.URL == "" {
		return ""
	}
	if variant == "" {
		variant = r.images.Variant
	}
	if variant == "" {
		variant = DefaultVariant
	}
	return strings.Join([]string{strings.TrimRight(r.images.URL, "/"), r.images.Hash, id, variant}, "/")
}

// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/dmitrijs2005/remotefiles/internal/upload"
)

// Photo attribute names as seen by the upload behavior.
const (
	PhotoSource         = "photos"
	PhotoTitle          = "title"
	PhotoImage          = "image"
	PhotoImageRemote    = "image_remote"
	PhotoImageExtension = "image_extension"
)

// Photo is a titled image owned by a user. The image bytes live in remote
// storage; the row keeps the generated key and extension.
type Photo struct {
	ID             string
	UserID         string
	Title          string
	Image          string // original client filename
	ImageRemote    string
	ImageExtension string
	CreatedAt      time.Time

	// Upload is the pending file, consumed by the upload behavior on save.
	Upload *upload.File
}

func (p *Photo) Source() string { return PhotoSource }

// Get returns the pending upload for the image field until it has been
// stored, and the stored filename afterwards.
func (p *Photo) Get(field string) any {
	switch field {
	case PhotoTitle:
		return p.Title
	case PhotoImage:
		if p.Upload != nil {
			return p.Upload
		}
		return p.Image
	case PhotoImageRemote:
		return p.ImageRemote
	case PhotoImageExtension:
		return p.ImageExtension
	default:
		return nil
	}
}

func (p *Photo) Set(field string, value any) {
	switch field {
	case PhotoTitle:
		p.Title, _ = value.(string)
	case PhotoImage:
		switch v := value.(type) {
		case *upload.File:
			p.Upload = v
		case string:
			p.Image = v
			p.Upload = nil
		}
	case PhotoImageRemote:
		p.ImageRemote, _ = value.(string)
	case PhotoImageExtension:
		p.ImageExtension, _ = value.(string)
	}
}

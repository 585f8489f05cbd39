// Package upload turns incoming files on an entity into stored remote
// objects and keeps the entity's reference attributes in step with them.
//
// A Behavior is attached to one kind of entity. The persistence layer calls
// BeforeMarshal when binding request data, BeforeSave before inserting and
// AfterDelete once the entity is gone.
package upload

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/remotefiles/internal/common"
	"github.com/dmitrijs2005/remotefiles/internal/logging"
	"github.com/dmitrijs2005/remotefiles/internal/remote"
)

// ImageMirror mirrors stored objects into an image CDN. *cfimages.Client
// satisfies it.
type ImageMirror interface {
	UploadURL(ctx context.Context, url, id string) bool
	Delete(ctx context.Context, id string) bool
}

// Options configures a Behavior.
type Options struct {
	Manager remote.Manager
	// Mirror is required when any field sets CloudflareImage.
	Mirror ImageMirror
	// Fields maps entity field names to their settings. Empty attribute
	// names are filled from Defaults.
	Fields   map[string]FieldConfig
	Defaults *FieldConfig
	// GlobalPrefix is prepended to every generated key.
	GlobalPrefix string
	Logger       logging.Logger
	// NewID generates the unique part of keys. Defaults to uuid.NewString.
	NewID func() string
}

// Behavior runs the upload hooks for one kind of entity. It is immutable
// after New and safe for concurrent use.
type Behavior struct {
	manager      remote.Manager
	mirror       ImageMirror
	fields       map[string]FieldConfig
	order        []string
	globalPrefix string
	newID        func() string
	logger       logging.Logger
}

// New validates the field settings and builds a Behavior. Unusable settings
// fail with common.ErrInvalidConfig.
func New(o Options) (*Behavior, error) {
	if o.Manager == nil {
		return nil, fmt.Errorf("%w: remote manager is required", common.ErrInvalidConfig)
	}

	defaults := DefaultField()
	if o.Defaults != nil {
		defaults = o.Defaults.merge(defaults)
	}

	b := &Behavior{
		manager:      o.Manager,
		mirror:       o.Mirror,
		fields:       make(map[string]FieldConfig, len(o.Fields)),
		globalPrefix: o.GlobalPrefix,
		newID:        o.NewID,
		logger:       o.Logger,
	}
	if b.newID == nil {
		b.newID = uuid.NewString
	}
	if b.logger == nil {
		b.logger = logging.Nop()
	}
	b.logger = b.logger.With("module", "upload")

	for name, fc := range o.Fields {
		if name == "" {
			return nil, fmt.Errorf("%w: upload field name is empty", common.ErrInvalidConfig)
		}
		fc = fc.merge(defaults)
		if fc.RemoteField == name || fc.ExtField == name || fc.RemoteField == fc.ExtField {
			return nil, fmt.Errorf("%w: field %q: remote and extension attributes must be distinct", common.ErrInvalidConfig, name)
		}
		if fc.CloudflareImage && o.Mirror == nil {
			return nil, fmt.Errorf("%w: field %q mirrors to the image CDN but no CDN client is configured", common.ErrInvalidConfig, name)
		}
		b.fields[name] = fc
		b.order = append(b.order, name)
	}
	sort.Strings(b.order)

	return b, nil
}

// Fields returns the configured field names in processing order.
func (b *Behavior) Fields() []string {
	return append([]string(nil), b.order...)
}

// BeforeMarshal drops empty submissions for fields that allow them, so the
// stored entity keeps its previous value.
func (b *Behavior) BeforeMarshal(data map[string]any) {
	for _, name := range b.order {
		v, ok := data[name]
		if !ok || !b.fields[name].AllowEmpty {
			continue
		}
		if f, ok := v.(*File); ok && f.Error == UploadNoFile {
			delete(data, name)
		}
	}
}

// BeforeSave uploads every pending file on the entity. The first failure
// aborts the save: objects already written by this call are removed again
// and the entity is left as it was. References are set and images mirrored
// only once every write has succeeded.
func (b *Behavior) BeforeSave(ctx context.Context, e Entity) error {
	var stored []storedFile

	for _, name := range b.order {
		f, ok := e.Get(name).(*File)
		if !ok || f == nil {
			continue
		}

		if f.Error != UploadOK {
			b.rollback(ctx, stored)
			return &FieldError{Field: name, Err: fmt.Errorf("%w: %s", common.ErrUploadFailed, f.Error)}
		}

		s, err := b.write(ctx, e, name, f)
		if err != nil {
			b.rollback(ctx, stored)
			return err
		}
		stored = append(stored, s)
	}

	for _, s := range stored {
		b.apply(ctx, e, s)
	}
	return nil
}

// storedFile is a file written by BeforeSave whose reference is not yet on
// the entity.
type storedFile struct {
	field    string
	filename string
	key      string
	ext      string
}

func (s storedFile) path() string { return objectPath(s.key, s.ext) }

func (b *Behavior) write(ctx context.Context, e Entity, name string, f *File) (storedFile, error) {
	fc := b.fields[name]

	prefix := fc.Prefix
	if prefix == "" {
		prefix = e.Source()
	}
	s := storedFile{
		field:    name,
		filename: f.ClientFilename,
		key:      b.globalPrefix + prefix + "-" + b.newID(),
		ext:      f.Extension(),
	}

	contents, err := io.ReadAll(f.Reader)
	if err != nil {
		return storedFile{}, &FieldError{Field: name, Err: fmt.Errorf("%w: read: %v", common.ErrUploadFailed, err)}
	}

	if !b.manager.Write(ctx, s.path(), contents) {
		return storedFile{}, &FieldError{Field: name, Err: fmt.Errorf("%w: `%s`", common.ErrRemoteWrite, s.path())}
	}

	b.logger.Debug(ctx, "file uploaded", "field", name, "path", s.path(), "size", len(contents))
	return s, nil
}

func (b *Behavior) apply(ctx context.Context, e Entity, s storedFile) {
	fc := b.fields[s.field]

	e.Set(s.field, s.filename)
	e.Set(fc.RemoteField, s.key)
	e.Set(fc.ExtField, s.ext)

	if fc.CloudflareImage {
		if !b.mirror.UploadURL(ctx, b.manager.URL(s.path()), s.key) {
			b.logger.Warn(ctx, "image cdn mirror failed", "field", s.field, "key", s.key)
		}
	}
}

func (b *Behavior) rollback(ctx context.Context, stored []storedFile) {
	for _, s := range stored {
		if !b.manager.Delete(ctx, s.path()) {
			b.logger.Warn(ctx, "rollback delete failed", "path", s.path())
		}
	}
}

// AfterDelete removes the remote objects of a deleted entity. Objects stored
// without an extension are removed under their bare key. Failures are logged
// and otherwise ignored.
func (b *Behavior) AfterDelete(ctx context.Context, e Entity) {
	for _, name := range b.order {
		fc := b.fields[name]
		if !fc.DeleteEnabled {
			continue
		}

		key := asString(e.Get(fc.RemoteField))
		if key == "" {
			continue
		}
		ext := asString(e.Get(fc.ExtField))

		if !b.manager.Delete(ctx, objectPath(key, ext)) {
			b.logger.Warn(ctx, "remote delete failed", "field", name, "key", key)
		}

		if fc.CloudflareImage {
			if !b.mirror.Delete(ctx, key) {
				b.logger.Warn(ctx, "image cdn delete failed", "field", name, "key", key)
			}
		}
	}
}

// References lists the stored objects an entity points at.
func (b *Behavior) References(e Entity) []Reference {
	var refs []Reference
	for _, name := range b.order {
		fc := b.fields[name]
		key := asString(e.Get(fc.RemoteField))
		if key == "" {
			continue
		}
		refs = append(refs, Reference{
			Field:            name,
			Key:              key,
			Extension:        asString(e.Get(fc.ExtField)),
			OriginalFilename: asString(e.Get(name)),
		})
	}
	return refs
}

// Field returns the effective settings of a configured field, with
// attribute names filled from the defaults.
func (b *Behavior) Field(name string) (FieldConfig, bool) {
	fc, ok := b.fields[name]
	return fc, ok
}

// Mirrored reports whether the field is mirrored into the image CDN.
func (b *Behavior) Mirrored(field string) bool {
	return b.fields[field].CloudflareImage
}

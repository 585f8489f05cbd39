// Package services implements the photo use cases on top of the repositories
// and the upload behavior.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/remotefiles/internal/common"
	"github.com/dmitrijs2005/remotefiles/internal/dbx"
	"github.com/dmitrijs2005/remotefiles/internal/delivery"
	"github.com/dmitrijs2005/remotefiles/internal/logging"
	"github.com/dmitrijs2005/remotefiles/internal/server/models"
	"github.com/dmitrijs2005/remotefiles/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/remotefiles/internal/upload"
)

// PhotoInput is a photo submission. Image may be nil when the request had
// no file part.
type PhotoInput struct {
	Title string
	Image *upload.File
}

// PhotoView is a stored photo with its public URLs resolved.
type PhotoView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PhotoService stores photos and their images for authenticated users.
type PhotoService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	uploader    *upload.Behavior
	resolver    *delivery.Resolver
	logger      logging.Logger
}

// NewPhotoService fails with common.ErrInvalidConfig unless the uploader
// handles exactly the photo image field and writes its reference into the
// photo's own attributes.
func NewPhotoService(db *sql.DB, m repomanager.RepositoryManager, uploader *upload.Behavior,
	resolver *delivery.Resolver, l logging.Logger) (*PhotoService, error) {
	if err := checkPhotoFields(uploader); err != nil {
		return nil, err
	}

	return &PhotoService{
		db:          db,
		repomanager: m,
		uploader:    uploader,
		resolver:    resolver,
		logger:      l.With("module", "photos"),
	}, nil
}

func checkPhotoFields(uploader *upload.Behavior) error {
	for _, name := range uploader.Fields() {
		if name != models.PhotoImage {
			return fmt.Errorf("%w: photos have no upload field %q", common.ErrInvalidConfig, name)
		}
	}

	fc, ok := uploader.Field(models.PhotoImage)
	if !ok {
		return fmt.Errorf("%w: upload field %q is not configured", common.ErrInvalidConfig, models.PhotoImage)
	}
	if fc.RemoteField != models.PhotoImageRemote || fc.ExtField != models.PhotoImageExtension {
		return fmt.Errorf("%w: field %q must store its reference in %q and %q, got %q and %q",
			common.ErrInvalidConfig, models.PhotoImage, models.PhotoImageRemote, models.PhotoImageExtension,
			fc.RemoteField, fc.ExtField)
	}
	return nil
}

// Create stores the image remotely, then inserts the row. When the insert
// or commit fails after the image was written, the remote copy is removed
// again on a best-effort basis.
func (s *PhotoService) Create(ctx context.Context, userID string, in PhotoInput) (*PhotoView, error) {
	image := in.Image
	if image == nil {
		image = &upload.File{Error: upload.UploadNoFile}
	}

	data := map[string]any{
		models.PhotoTitle: in.Title,
		models.PhotoImage: image,
	}
	s.uploader.BeforeMarshal(data)

	photo := &models.Photo{UserID: userID}
	for field, v := range data {
		photo.Set(field, v)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.uploader.BeforeSave(ctx, photo); err != nil {
			return err
		}
		if _, err := s.repomanager.Photos(tx).Create(ctx, photo); err != nil {
			return fmt.Errorf("insert photo: %w", err)
		}
		return nil
	})
	if err != nil {
		if photo.ImageRemote != "" {
			s.logger.Warn(ctx, "photo not saved, removing stored image", "key", photo.ImageRemote, "error", err)
			s.uploader.AfterDelete(ctx, photo)
		}
		return nil, err
	}

	s.logger.Info(ctx, "photo created", "id", photo.ID, "user_id", userID, "key", photo.ImageRemote)
	return s.view(photo), nil
}

// Get returns a photo owned by userID. Foreign photos are reported as
// common.ErrorNotFound.
func (s *PhotoService) Get(ctx context.Context, userID, id string) (*PhotoView, error) {
	photo, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.view(photo), nil
}

// List returns the user's photos, newest first.
func (s *PhotoService) List(ctx context.Context, userID string) ([]*PhotoView, error) {
	photos, err := s.repomanager.Photos(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]*PhotoView, 0, len(photos))
	for _, p := range photos {
		views = append(views, s.view(p))
	}
	return views, nil
}

// Delete removes the row first and then the remote copies, whose failures
// are only logged.
func (s *PhotoService) Delete(ctx context.Context, userID, id string) error {
	photo, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.repomanager.Photos(s.db).Delete(ctx, id, userID); err != nil {
		return err
	}

	s.uploader.AfterDelete(ctx, photo)
	s.logger.Info(ctx, "photo deleted", "id", id, "user_id", userID)
	return nil
}

func (s *PhotoService) owned(ctx context.Context, userID, id string) (*models.Photo, error) {
	photo, err := s.repomanager.Photos(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if photo.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return photo, nil
}

func (s *PhotoService) view(p *models.Photo) *PhotoView {
	v := &PhotoView{
		ID:        p.ID,
		Title:     p.Title,
		Filename:  p.Image,
		URL:       s.resolver.File(p.ImageRemote, p.ImageExtension),
		CreatedAt: p.CreatedAt,
	}
	if s.uploader.Mirrored(models.PhotoImage) {
		v.ImageURL = s.resolver.ImageURL(p.ImageRemote)
	}
	return v
}

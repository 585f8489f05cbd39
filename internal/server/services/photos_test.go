package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/remotefiles/internal/common"
	"github.com/dmitrijs2005/remotefiles/internal/dbx"
	"github.com/dmitrijs2005/remotefiles/internal/delivery"
	"github.com/dmitrijs2005/remotefiles/internal/logging"
	"github.com/dmitrijs2005/remotefiles/internal/remote"
	"github.com/dmitrijs2005/remotefiles/internal/server/models"
	"github.com/dmitrijs2005/remotefiles/internal/server/repositories/photos"
	"github.com/dmitrijs2005/remotefiles/internal/upload"
)

type fakePhotosRepo struct {
	created   []*models.Photo
	createErr error
	byID      map[string]*models.Photo
	deleted   []string
	deleteErr error
	listOut   []*models.Photo
}

func (f *fakePhotosRepo) Create(_ context.Context, p *models.Photo) (*models.Photo, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	p.ID = "p1"
	p.CreatedAt = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	f.created = append(f.created, p)
	return p, nil
}

func (f *fakePhotosRepo) GetByID(_ context.Context, id string) (*models.Photo, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (f *fakePhotosRepo) ListByUser(_ context.Context, userID string) ([]*models.Photo, error) {
	return f.listOut, nil
}

func (f *fakePhotosRepo) Delete(_ context.Context, id, userID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeRepoManager struct {
	photos *fakePhotosRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Photos(dbx.DBTX) photos.Repository            { return m.photos }

type fakeMirror struct {
	uploads []string
	deletes []string
}

func (f *fakeMirror) UploadURL(_ context.Context, url, id string) bool {
	f.uploads = append(f.uploads, url)
	return true
}

func (f *fakeMirror) Delete(_ context.Context, id string) bool {
	f.deletes = append(f.deletes, id)
	return true
}

type fixture struct {
	svc    *PhotoService
	mock   sqlmock.Sqlmock
	repo   *fakePhotosRepo
	store  *remote.MemoryManager
	mirror *fakeMirror
}

func newFixture(t *testing.T, field upload.FieldConfig) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := remote.NewMemoryManager(remote.MemoryOptions{BaseURL: "https://files.example.com"})
	mirror := &fakeMirror{}
	b, err := upload.New(upload.Options{
		Manager: store,
		Mirror:  mirror,
		Fields:  map[string]upload.FieldConfig{models.PhotoImage: field},
		NewID:   func() string { return "abc" },
	})
	require.NoError(t, err)

	resolver := delivery.NewResolver(store, &delivery.ImageDelivery{URL: "https://imagedelivery.net", Hash: "h"})
	repo := &fakePhotosRepo{byID: map[string]*models.Photo{}}
	svc, err := NewPhotoService(db, &fakeRepoManager{photos: repo}, b, resolver, logging.Nop())
	require.NoError(t, err)

	return &fixture{
		svc:    svc,
		mock:   mock,
		repo:   repo,
		store:  store,
		mirror: mirror,
	}
}

func imageField() upload.FieldConfig {
	fc := upload.DefaultField()
	fc.RemoteField = models.PhotoImageRemote
	fc.ExtField = models.PhotoImageExtension
	return fc
}

func TestNewPhotoService_RejectsForeignFields(t *testing.T) {
	store := remote.NewMemoryManager(remote.MemoryOptions{})
	resolver := delivery.NewResolver(store, nil)

	tests := []struct {
		name   string
		fields map[string]upload.FieldConfig
	}{
		{"unknown field", map[string]upload.FieldConfig{"avatar": imageField()}},
		{"extra field", map[string]upload.FieldConfig{models.PhotoImage: imageField(), "thumb": {RemoteField: "a", ExtField: "b"}}},
		{"no fields", nil},
		{"default attributes", map[string]upload.FieldConfig{models.PhotoImage: upload.DefaultField()}},
		{"swapped attributes", map[string]upload.FieldConfig{models.PhotoImage: {
			RemoteField: models.PhotoImageExtension, ExtField: models.PhotoImageRemote}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := upload.New(upload.Options{Manager: store, Fields: tt.fields})
			require.NoError(t, err)

			_, err = NewPhotoService(nil, &fakeRepoManager{}, b, resolver, logging.Nop())
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func pngInput(title string) PhotoInput {
	return PhotoInput{Title: title, Image: &upload.File{Reader: strings.NewReader("png"), ClientFilename: "cat.png", Size: 3}}
}

func TestPhotoService_Create(t *testing.T) {
	fc := imageField()
	fc.CloudflareImage = true
	f := newFixture(t, fc)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	v, err := f.svc.Create(context.Background(), "u1", pngInput("cat"))
	require.NoError(t, err)

	assert.Equal(t, "p1", v.ID)
	assert.Equal(t, "cat", v.Title)
	assert.Equal(t, "cat.png", v.Filename)
	assert.Equal(t, "https://files.example.com/photos-abc.png", v.URL)
	assert.Equal(t, "https://imagedelivery.net/h/photos-abc/default", v.ImageURL)

	require.Len(t, f.repo.created, 1)
	assert.Equal(t, "u1", f.repo.created[0].UserID)
	assert.Equal(t, "photos-abc", f.repo.created[0].ImageRemote)
	assert.Equal(t, "png", f.repo.created[0].ImageExtension)

	_, ok := f.store.Get("photos-abc.png")
	assert.True(t, ok)
	assert.Equal(t, []string{"https://files.example.com/photos-abc.png"}, f.mirror.uploads)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestPhotoService_Create_NoImageURLWithoutMirror(t *testing.T) {
	f := newFixture(t, imageField())
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	v, err := f.svc.Create(context.Background(), "u1", pngInput("cat"))
	require.NoError(t, err)
	assert.Empty(t, v.ImageURL)
	assert.Empty(t, f.mirror.uploads)
}

func TestPhotoService_Create_MissingFile(t *testing.T) {
	f := newFixture(t, imageField())
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Create(context.Background(), "u1", PhotoInput{Title: "cat"})

	var fe *upload.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, models.PhotoImage, fe.Field)
	assert.ErrorIs(t, err, common.ErrUploadFailed)
	assert.Empty(t, f.repo.created)
	assert.Zero(t, f.store.Len())
}

func TestPhotoService_Create_AllowEmpty(t *testing.T) {
	fc := imageField()
	fc.AllowEmpty = true
	f := newFixture(t, fc)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	v, err := f.svc.Create(context.Background(), "u1", PhotoInput{Title: "text only"})
	require.NoError(t, err)
	assert.Empty(t, v.URL)
	assert.Zero(t, f.store.Len())
}

func TestPhotoService_Create_InsertFailureRemovesImage(t *testing.T) {
	fc := imageField()
	fc.CloudflareImage = true
	f := newFixture(t, fc)
	f.repo.createErr = errors.New("unique violation")
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Create(context.Background(), "u1", pngInput("cat"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert photo")

	assert.Zero(t, f.store.Len())
	assert.Equal(t, []string{"photos-abc"}, f.mirror.deletes)
}

func TestPhotoService_Create_BeginFails(t *testing.T) {
	f := newFixture(t, imageField())
	f.mock.ExpectBegin().WillReturnError(errors.New("no connection"))

	_, err := f.svc.Create(context.Background(), "u1", pngInput("cat"))
	require.Error(t, err)
	assert.Zero(t, f.store.Len())
}

func TestPhotoService_GetAndList(t *testing.T) {
	f := newFixture(t, imageField())
	p := &models.Photo{ID: "p1", UserID: "u1", Title: "cat", Image: "cat.png", ImageRemote: "photos-1", ImageExtension: "png"}
	f.repo.byID["p1"] = p
	f.repo.listOut = []*models.Photo{p}

	v, err := f.svc.Get(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/photos-1.png", v.URL)

	_, err = f.svc.Get(context.Background(), "u2", "p1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.svc.Get(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	list, err := f.svc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].ID)
}

func TestPhotoService_Delete(t *testing.T) {
	fc := imageField()
	fc.CloudflareImage = true
	f := newFixture(t, fc)
	require.True(t, f.store.Write(context.Background(), "photos-1.png", []byte("x")))
	f.repo.byID["p1"] = &models.Photo{ID: "p1", UserID: "u1", ImageRemote: "photos-1", ImageExtension: "png"}

	require.NoError(t, f.svc.Delete(context.Background(), "u1", "p1"))

	assert.Equal(t, []string{"p1"}, f.repo.deleted)
	assert.Zero(t, f.store.Len())
	assert.Equal(t, []string{"photos-1"}, f.mirror.deletes)
}

func TestPhotoService_Delete_KeepsRemoteWhenDisabled(t *testing.T) {
	fc := imageField()
	fc.DeleteEnabled = false
	f := newFixture(t, fc)
	require.True(t, f.store.Write(context.Background(), "photos-1.png", []byte("x")))
	f.repo.byID["p1"] = &models.Photo{ID: "p1", UserID: "u1", ImageRemote: "photos-1", ImageExtension: "png"}

	require.NoError(t, f.svc.Delete(context.Background(), "u1", "p1"))
	assert.Equal(t, 1, f.store.Len())
}

func TestPhotoService_Delete_RowFailureKeepsRemote(t *testing.T) {
	f := newFixture(t, imageField())
	require.True(t, f.store.Write(context.Background(), "photos-1.png", []byte("x")))
	f.repo.byID["p1"] = &models.Photo{ID: "p1", UserID: "u1", ImageRemote: "photos-1", ImageExtension: "png"}
	f.repo.deleteErr = errors.New("db down")

	require.Error(t, f.svc.Delete(context.Background(), "u1", "p1"))
	assert.Equal(t, 1, f.store.Len())

	assert.ErrorIs(t, f.svc.Delete(context.Background(), "u2", "p1"), common.ErrorNotFound)
}

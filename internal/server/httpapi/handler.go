package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/remotefiles/internal/common"
	"github.com/dmitrijs2005/remotefiles/internal/logging"
	"github.com/dmitrijs2005/remotefiles/internal/server/services"
	"github.com/dmitrijs2005/remotefiles/internal/upload"
)

const (
	formTitle = "title"
	formImage = "image"

	// multipartMemory is how much of a form is kept in memory before
	// spilling file parts to disk.
	multipartMemory = 8 << 20
)

// PhotoService is the part of services.PhotoService the handlers use.
type PhotoService interface {
	Create(ctx context.Context, userID string, in services.PhotoInput) (*services.PhotoView, error)
	Get(ctx context.Context, userID, id string) (*services.PhotoView, error)
	List(ctx context.Context, userID string) ([]*services.PhotoView, error)
	Delete(ctx context.Context, userID, id string) error
}

// Handler serves the photo endpoints.
type Handler struct {
	svc            PhotoService
	maxUploadBytes int64
	logger         logging.Logger
}

// NewHandler limits request bodies of uploads to maxUploadBytes.
func NewHandler(svc PhotoService, maxUploadBytes int64, l logging.Logger) *Handler {
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes, logger: l.With("module", "httpapi")}
}

// CreatePhoto accepts a multipart form with a title and an image part.
// Transport failures are handed to the service as upload error codes so
// they are reported the same way as any other rejected upload.
func (h *Handler) CreatePhoto(w http.ResponseWriter, r *http.Request) {
	userID, authorized := h.user(w, r)
	if !authorized {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	in := services.PhotoInput{}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			fail(w, http.StatusBadRequest, "expected a multipart form")
			return
		}
		in.Image = &upload.File{Error: formError(err)}
	} else {
		defer r.MultipartForm.RemoveAll()
		in.Title = r.FormValue(formTitle)

		file, header, err := r.FormFile(formImage)
		switch {
		case err == nil:
			defer file.Close()
			in.Image = &upload.File{
				Reader:         file,
				ClientFilename: header.Filename,
				Size:           header.Size,
				ContentType:    header.Header.Get("Content-Type"),
			}
		case errors.Is(err, http.ErrMissingFile):
			in.Image = &upload.File{Error: upload.UploadNoFile}
		default:
			in.Image = &upload.File{Error: formError(err)}
		}
	}

	view, err := h.svc.Create(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	created(w, view)
}

// ListPhotos returns the caller's photos, newest first.
func (h *Handler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	userID, authorized := h.user(w, r)
	if !authorized {
		return
	}

	views, err := h.svc.List(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, views)
}

// GetPhoto returns one photo of the caller.
func (h *Handler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	userID, authorized := h.user(w, r)
	if !authorized {
		return
	}

	id, valid := photoID(r)
	if !valid {
		fail(w, http.StatusNotFound, "photo not found")
		return
	}

	view, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, view)
}

// DeletePhoto removes a photo and answers 204.
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	userID, authorized := h.user(w, r)
	if !authorized {
		return
	}

	id, valid := photoID(r)
	if !valid {
		fail(w, http.StatusNotFound, "photo not found")
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// user returns the authenticated user, answering 401 when there is none.
func (h *Handler) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := UserID(r.Context())
	if !ok {
		h.writeError(w, r, common.ErrorUnauthorized)
	}
	return userID, ok
}

func photoID(r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// formError classifies a multipart read failure.
func formError(err error) upload.UploadError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return upload.UploadFormSize
	}
	return upload.UploadPartial
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrUploadFailed):
		fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrRemoteWrite):
		h.logger.Error(r.Context(), "remote write failed", "error", err)
		fail(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		fail(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrorNotFound):
		fail(w, http.StatusNotFound, "photo not found")
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		fail(w, http.StatusInternalServerError, "internal server error")
	}
}

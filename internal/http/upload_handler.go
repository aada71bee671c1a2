package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const DefaultUploadMaxBytes = 5 << 20 // 5MB

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type UploadHandler struct {
	dir      string
	maxBytes int64
	baseURL  string
}

func NewUploadHandler(dir string, maxBytes int64, baseURL string) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultUploadMaxBytes
	}
	return &UploadHandler{
		dir:      dir,
		maxBytes: maxBytes,
		baseURL:  baseURL,
	}
}

type UploadResponse struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Upload stores one image from the multipart field "image" under a generated name.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Multipart framing needs some room on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+(64<<10))
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Sprintf("image must be at most %d bytes", h.maxBytes))
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "expected a multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing_image", "image file is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Sprintf("image must be at most %d bytes", h.maxBytes))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "could not read image")
		return
	}
	if int64(len(data)) > h.maxBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Sprintf("image must be at most %d bytes", h.maxBytes))
		return
	}

	mtype := mimetype.Detect(data)
	ext, ok := allowedImageTypes[mtype.String()]
	if !ok {
		respondError(w, http.StatusUnsupportedMediaType, "unsupported_type", "only JPEG, PNG and WEBP images are allowed")
		return
	}

	filename := uuid.NewString() + ext
	if err := writeFileAtomic(h.dir, filename, data); err != nil {
		slog.ErrorContext(r.Context(), "failed to store upload", "filename", filename, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not store image")
		return
	}
	slog.InfoContext(r.Context(), "image uploaded", "filename", filename, "content_type", mtype.String(), "size", len(data))

	respondJSON(w, http.StatusCreated, &UploadResponse{
		URL:         h.baseURL + "/uploads/" + filename,
		Filename:    filename,
		ContentType: mtype.String(),
		Size:        int64(len(data)),
	})
}

func writeFileAtomic(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}

package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"cardsmith/internal/domain"
)

const maxUploadBytes = 64 << 20

// UploadImages stages the posted image files and moves the workflow into the
// uploading phase. Image ids are time+index derived so they stay unique
// within a session.
func (a *App) UploadImages(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["images"]) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "at least one image is required")
		return
	}

	files := r.MultipartForm.File["images"]
	sessionID := a.Store.SessionID()
	batch := time.Now().UnixMilli()

	images := make([]domain.UploadedImage, len(files))
	g, ctx := errgroup.WithContext(r.Context())
	for i, header := range files {
		i, header := i, header
		g.Go(func() error {
			data, err := readPart(header)
			if err != nil {
				return fmt.Errorf("read %s: %w", header.Filename, err)
			}
			id := fmt.Sprintf("img-%d-%d", batch, i)
			key := fmt.Sprintf("uploads/%s/%s%s", sessionID, id, uploadExt(header.Filename))
			savedKey, err := a.Files.Write(ctx, key, data)
			if err != nil {
				return fmt.Errorf("stage %s: %w", header.Filename, err)
			}
			images[i] = domain.UploadedImage{
				ID:         id,
				FileKey:    savedKey,
				PreviewURL: a.BaseURL + "/" + savedKey,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: staging uploads failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to stage uploads")
		return
	}

	a.Store.SetUploadedImages(images)
	a.Store.SetPhase(domain.PhaseUploading)

	a.json(w, http.StatusCreated, map[string]any{
		"session_id": sessionID,
		"images":     images,
	})
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func uploadExt(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
		return ext
	default:
		return ".bin"
	}
}

package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"donationhub/internal/domain"
)

type uploadResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// UploadImage accepts a multipart "image" field and returns the public URL to
// reference from a donation item.
func (a *App) UploadImage(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.actor(r)
	if !ok {
		a.Fail(w, r, domain.ErrUnauthorized)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes+1<<10)
	file, _, err := r.FormFile("image")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		a.tooLarge(w)
		return
	}
	if err != nil {
		a.Fail(w, r, fmt.Errorf("%w: multipart field \"image\" is required", domain.ErrValidation))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, a.MaxUploadBytes+1))
	if err != nil {
		a.Fail(w, r, fmt.Errorf("read upload: %w", err))
		return
	}
	if int64(len(data)) > a.MaxUploadBytes {
		a.tooLarge(w)
		return
	}
	key, err := a.Files.SaveImage(r.Context(), actor.ID, data)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	a.logger(r).Info().Str("key", key).Int("bytes", len(data)).Msg("image uploaded")
	a.json(w, http.StatusCreated, uploadResponse{URL: a.Files.URL(key), Key: key})
}

func (a *App) tooLarge(w http.ResponseWriter) {
	a.error(w, http.StatusRequestEntityTooLarge, "too_large", fmt.Sprintf("images are limited to %d bytes", a.MaxUploadBytes))
}

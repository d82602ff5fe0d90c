// Package uploads stores admin image uploads in the configured waffle
// storage backend (local disk or S3).
package uploads

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
)

// MaxImageSize caps one uploaded image at 8 MB.
const MaxImageSize = 8 << 20

var (
	// ErrNoFile is returned when the form has no file in the field.
	ErrNoFile = errors.New("no file was uploaded")
	// ErrTooLarge is returned when the image exceeds MaxImageSize.
	ErrTooLarge = fmt.Errorf("image is larger than %s", FormatSize(MaxImageSize))
	// ErrNotImage is returned for anything but jpeg, png, gif or webp.
	ErrNotImage = errors.New("only JPEG, PNG, GIF and WebP images can be uploaded")
	// ErrNoStorage is returned when no storage backend is configured.
	ErrNoStorage = errors.New("file storage is not configured")
)

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Stored is an uploaded image: its storage path and public URL.
type Stored struct {
	Path string
	URL  string
}

// Image reads the image in form field name and stores it under
// prefix/YYYY/MM/. The request must not have been parsed yet.
func Image(ctx context.Context, store storage.Store, r *http.Request, field, prefix string) (Stored, error) {
	if store == nil {
		return Stored{}, ErrNoStorage
	}
	r.Body = http.MaxBytesReader(nil, r.Body, MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(MaxImageSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return Stored{}, ErrTooLarge
		}
		return Stored{}, fmt.Errorf("parse upload: %w", err)
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return Stored{}, ErrNoFile
	}
	if err != nil {
		return Stored{}, fmt.Errorf("read upload: %w", err)
	}
	defer file.Close()
	return Put(ctx, store, file, header, prefix, time.Now().UTC())
}

// Put stores an already-opened multipart file. The content type is sniffed
// from the first 512 bytes rather than trusted from the browser.
func Put(ctx context.Context, store storage.Store, file multipart.File, header *multipart.FileHeader, prefix string, now time.Time) (Stored, error) {
	if header.Size > MaxImageSize {
		return Stored{}, ErrTooLarge
	}
	head := make([]byte, 512)
	n, _ := file.Read(head)
	contentType := http.DetectContentType(head[:n])
	ext, ok := imageTypes[contentType]
	if !ok {
		return Stored{}, ErrNotImage
	}
	if _, err := file.Seek(0, 0); err != nil {
		return Stored{}, fmt.Errorf("rewind upload: %w", err)
	}

	path := fmt.Sprintf("%s/%04d/%02d/%s%s",
		strings.Trim(prefix, "/"), now.Year(), int(now.Month()), uuid.New().String()[:8], ext)
	if err := store.Put(ctx, path, file, &storage.PutOptions{ContentType: contentType}); err != nil {
		return Stored{}, fmt.Errorf("store upload: %w", err)
	}
	return Stored{Path: path, URL: store.URL(path)}, nil
}

// Remove deletes a stored upload. A blank path is a no-op.
func Remove(ctx context.Context, store storage.Store, path string) error {
	if store == nil || path == "" {
		return nil
	}
	return store.Delete(ctx, path)
}

// Message turns an upload error into text for the admin form.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNoFile):
		return "Please choose an image to upload."
	case errors.Is(err, ErrTooLarge):
		return "That image is too large. The limit is " + FormatSize(MaxImageSize) + "."
	case errors.Is(err, ErrNotImage):
		return ErrNotImage.Error() + "."
	case errors.Is(err, ErrNoStorage):
		return "Uploads are not available because file storage is not configured."
	default:
		return "The image could not be uploaded. Please try again."
	}
}

// FormatSize formats a byte count for people, e.g. "8.0 MB".
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

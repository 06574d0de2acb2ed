// Package avatars stores profile pictures under profilePictures/{userID}.
package avatars

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
)

// MaxSize bounds an uploaded picture.
const MaxSize = 5 << 20

// DefaultURLTTL is how long presigned picture URLs stay valid.
const DefaultURLTTL = 15 * time.Minute

// ErrNotFound is returned when a user has no picture.
var ErrNotFound = errors.New("avatars: not found")

// ErrUnsupportedType is returned for uploads that are not images.
var ErrUnsupportedType = errors.New("avatars: unsupported image type")

// ErrTooLarge is returned for uploads over MaxSize.
var ErrTooLarge = errors.New("avatars: image too large")

// Pictures keeps profile pictures in a storage backend. Backends that can
// presign (S3) hand out signed URLs; the others (local, memory) return
// their public URL.
type Pictures struct {
	store storage.Store
	ttl   time.Duration
}

// New wraps store. A non-positive ttl uses DefaultURLTTL.
func New(store storage.Store, ttl time.Duration) *Pictures {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	return &Pictures{store: store, ttl: ttl}
}

// Key is the object key of a user's picture.
func Key(userID string) string {
	return "profilePictures/" + userID
}

// Put replaces the user's picture.
func (p *Pictures) Put(ctx context.Context, userID string, data []byte, contentType string) error {
	err := p.store.PutBytes(ctx, Key(userID), data, &storage.PutOptions{
		ContentType:  contentType,
		CacheControl: "private, max-age=300",
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", Key(userID), err)
	}
	return nil
}

// URL returns a fetchable URL for the user's picture, or ErrNotFound.
func (p *Pictures) URL(ctx context.Context, userID string) (string, error) {
	key := Key(userID)
	ok, err := p.store.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", key, err)
	}
	if !ok {
		return "", ErrNotFound
	}

	signed, err := p.store.PresignedURL(ctx, key, &storage.PresignOptions{Expires: p.ttl})
	switch {
	case err == nil:
		return signed, nil
	case errors.Is(err, storage.ErrPresignNotSupported):
		if u := p.store.URL(key); u != "" {
			return u, nil
		}
		return "", fmt.Errorf("avatars: %s backend has no public URL", p.store.Backend())
	default:
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
}

var allowedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// ReadImage reads at most MaxSize bytes from r and sniffs the content type.
func ReadImage(r io.Reader) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxSize {
		return nil, "", ErrTooLarge
	}
	ct := http.DetectContentType(data)
	if !allowedTypes[ct] {
		return nil, "", ErrUnsupportedType
	}
	return data, ct, nil
}

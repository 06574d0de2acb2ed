// internal/app/system/limits/limits.go
package limits

import "github.com/dalemusser/couponhub/internal/app/system/avatars"

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the maximum size for JSON request bodies (sign-in,
	// account settings, toggles).
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxAvatarUpload bounds a profile picture request: the picture itself
	// plus room for multipart headers.
	MaxAvatarUpload = avatars.MaxSize + 1<<20
)

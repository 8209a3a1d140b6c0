// Package avatar stores user avatar images and hands back the URL they can
// be fetched from.
package avatar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vedran77/concorde/internal/domain"
)

const MaxSize = 2 << 20

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// objectName checks the upload and returns its content-addressed name.
func objectName(contentType string, data []byte) (string, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", domain.NewValidationError("avatar", fmt.Sprintf("unsupported content type %q", contentType))
	}
	if len(data) == 0 {
		return "", domain.NewValidationError("avatar", "is empty")
	}
	if len(data) > MaxSize {
		return "", domain.NewValidationError("avatar", "must be at most 2 MiB")
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]) + ext, nil
}

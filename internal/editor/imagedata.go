package editor

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultMaxImageBytes caps one staged image.
const DefaultMaxImageBytes = 5 << 20

var (
	ErrImageTooLarge = errors.New("image too large")
	ErrNotImage      = errors.New("file is not an image")
)

// DataURL reads r fully and returns it as a base64 data URL.  Content that
// is larger than limit bytes or does not sniff as an image is refused.
func DataURL(r io.Reader, limit int64) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxImageBytes
	}
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if int64(len(b)) > limit {
		return "", ErrImageTooLarge
	}
	ct := http.DetectContentType(b)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	if !strings.HasPrefix(ct, "image/") {
		return "", ErrNotImage
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}

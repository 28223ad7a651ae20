package download

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

var errNoQueryDelimiter = errors.New("no query delimiter in final url segment")

// ResolveName extracts the on-disk file name from a direct download
// URL. Nexus CDN links place the real file name in the last path
// segment followed by signing parameters, e.g.
//
//	https://cf-files.nexuscdn.com/110/x/File_1.7z?md5=...&expires=...
//
// so the name is everything in the final segment up to the first '?'.
// A URL without that shape yields an error.
func ResolveName(rawURL string) (string, error) {
	seg := rawURL[strings.LastIndexByte(rawURL, '/')+1:]

	i := strings.IndexByte(seg, '?')
	if i <= 0 {
		return "", fmt.Errorf("%w: %q", errNoQueryDelimiter, seg)
	}

	return seg[:i], nil
}

// FileName resolves the destination file name for rawURL, falling back
// to the full URL string when no name can be extracted. The fallback
// is logged, never treated as an error; path-escaping keeps the URL's
// slashes from turning the name into a directory tree.
func FileName(rawURL string, logger *slog.Logger) string {
	name, err := ResolveName(rawURL)
	if err != nil {
		logger.Warn("file name extraction failed, using full url", "url", rawURL, "error", err)
		return url.PathEscape(rawURL)
	}

	return name
}

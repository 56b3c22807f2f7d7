package download

import (
	"net/http"
	"net/url"
	"path"
	"strings"
	"unicode"
)

// dispositionFilename pulls the quoted filename parameter out of a
// Content-Disposition header, decoding percent escapes.
func dispositionFilename(header string) string {
	for _, quote := range []string{`"`, `'`} {
		marker := "filename=" + quote
		start := strings.Index(header, marker)
		if start < 0 {
			continue
		}
		rest := header[start+len(marker):]
		end := strings.Index(rest, quote)
		if end < 0 {
			continue
		}
		name := rest[:end]
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}
		return name
	}
	return ""
}

// contentTypeExt maps response content types to filename extensions for
// URLs whose basename carries none.
var contentTypeExt = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/vnd.ms-excel": ".xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ".xlsx",
	"application/vnd.ms-powerpoint":                                     ".ppt",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
	"text/plain": ".txt",
	"text/html":  ".html",
	"text/csv":   ".csv",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// ResponseFilename derives the destination filename: the response's
// Content-Disposition name first, then the URL path's basename (with a
// content-type extension when it has none), then the last raw URL segment.
func ResponseFilename(resp *http.Response, requestURL string) string {
	if name := dispositionFilename(resp.Header.Get("Content-Disposition")); name != "" {
		return name
	}

	name := ""
	if u, err := url.Parse(requestURL); err == nil {
		decoded := u.Path
		if unescaped, err := url.PathUnescape(decoded); err == nil {
			decoded = unescaped
		}
		name = path.Base(decoded)
		if name == "." || name == "/" {
			name = ""
		}
	}

	if name != "" && !strings.Contains(name, ".") {
		contentType := resp.Header.Get("Content-Type")
		if i := strings.Index(contentType, ";"); i >= 0 {
			contentType = contentType[:i]
		}
		if ext, ok := contentTypeExt[strings.TrimSpace(contentType)]; ok {
			name += ext
		}
	}

	if name == "" {
		segments := strings.Split(requestURL, "/")
		name = segments[len(segments)-1]
	}
	return name
}

// Sanitize strips every character outside alphanumerics and "._- ", the
// safe set for all target filesystems.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("._- ", r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fallbackName is the last-resort filename from the raw URL, query stripped.
func fallbackName(rawURL string) string {
	segments := strings.Split(rawURL, "/")
	last := segments[len(segments)-1]
	if i := strings.Index(last, "?"); i >= 0 {
		last = last[:i]
	}
	return last
}

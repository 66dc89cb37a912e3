// Package files derives the preview and redirect URLs the client needs for
// attachment file ids. The note core treats file ids as opaque references to
// the host platform's file storage; this service only builds URLs, it never
// reads file content.
package files

import (
	"net/url"
	"strconv"
	"strings"
)

// Service implements the notes.FileURLs contract.
type Service struct {
	baseURL     string
	previewSize int
}

// NewService creates a URL builder rooted at baseURL. previewSize is the
// square bounding box, in pixels, requested for previews.
func NewService(baseURL string, previewSize int) *Service {
	return &Service{
		baseURL:     strings.TrimRight(baseURL, "/"),
		previewSize: previewSize,
	}
}

// PreviewURL returns the URL of a scaled preview image for the file.
func (s *Service) PreviewURL(fileID string) string {
	size := strconv.Itoa(s.previewSize)
	q := url.Values{}
	q.Set("file", fileID)
	q.Set("x", size)
	q.Set("y", size)
	return s.baseURL + "/preview?" + q.Encode()
}

// RedirectURL returns the URL that opens the file itself.
func (s *Service) RedirectURL(fileID string) string {
	return s.baseURL + "/f/" + url.PathEscape(fileID)
}

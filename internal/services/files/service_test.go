package files

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreviewURL(t *testing.T) {
	svc := NewService("http://host/files", 512)

	got := svc.PreviewURL("42")
	assert.Equal(t, "http://host/files/preview?file=42&x=512&y=512", got)
}

func TestPreviewURLEscapesFileID(t *testing.T) {
	svc := NewService("http://host/files", 256)

	got := svc.PreviewURL("a b&c")
	assert.Equal(t, "http://host/files/preview?file=a+b%26c&x=256&y=256", got)
}

func TestRedirectURL(t *testing.T) {
	svc := NewService("http://host/files/", 512)

	assert.Equal(t, "http://host/files/f/42", svc.RedirectURL("42"))
	assert.Equal(t, "http://host/files/f/a%20b", svc.RedirectURL("a b"))
}

func TestTrailingSlashNormalized(t *testing.T) {
	withSlash := NewService("http://host/files/", 512)
	without := NewService("http://host/files", 512)

	assert.Equal(t, without.PreviewURL("1"), withSlash.PreviewURL("1"))
}

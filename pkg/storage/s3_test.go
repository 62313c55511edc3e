package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("image/png"))
	assert.True(t, IsImage("IMAGE/JPEG; charset=binary"))
	assert.False(t, IsImage("text/html; charset=utf-8"))
	assert.False(t, IsImage(""))
}

func TestImageExtension(t *testing.T) {
	tests := []struct {
		contentType, path, want string
	}{
		{"image/png", "/x", ".png"},
		{"image/jpeg; q=1", "/cover", ".jpg"},
		{"application/octet-stream", "/covers/deep-work.WEBP", ".webp"},
		{"image/x-unknown", "/cover.jpeg", ".jpg"},
		{"image/x-unknown", "/cover", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ImageExtension(tt.contentType, tt.path), "%s %s", tt.contentType, tt.path)
	}
}

func TestResourceImageKey(t *testing.T) {
	assert.Equal(t, "resources/deep-work.png", ResourceImageKey("deep-work", ".png"))
	assert.Equal(t, "resources/x.jpg", ResourceImageKey("../../x", ".jpg"))
	assert.Equal(t, "https://b.s3.us-east-1.amazonaws.com/resources/a.png", PublicURL("b", "us-east-1", "resources/a.png"))
}

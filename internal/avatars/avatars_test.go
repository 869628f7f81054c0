package avatars

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileExt(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"photo.png", "png"},
		{"photo.JPEG", "jpeg"},
		{"archive.tar.gz", "gz"},
		{"noext", "jpg"},
		{"trailing.", "jpg"},
		{"", "jpg"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, fileExt(tc.filename), "filename %q", tc.filename)
	}
}

func TestObjectPath(t *testing.T) {
	p := objectPath("user-1", "selfie.PNG")
	assert.True(t, strings.HasPrefix(p, "user-1/avatar-"), "path %q", p)
	assert.True(t, strings.HasSuffix(p, ".png"), "path %q", p)
}

func TestStoreDisabled(t *testing.T) {
	s := New(nil, "")
	assert.False(t, s.Enabled())

	_, err := s.Put(context.Background(), "u1", "a.png", "image/png", strings.NewReader("x"), 1)
	assert.Error(t, err)

	_, err = s.SignedURL(context.Background(), "u1/avatar-1.png", 0)
	assert.Error(t, err)
}

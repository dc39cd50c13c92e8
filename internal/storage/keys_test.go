package storage

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestArtifactKeys(t *testing.T) {
	id := uuid.MustParse("7f9c24e5-2c63-4b1a-9d7e-0a1b2c3d4e5f")

	// Screenshots are captured as JPEG by the browser collector, so the key
	// and the stored content type must say so.
	assert.Equal(t, "screenshots/7f9c24e5-2c63-4b1a-9d7e-0a1b2c3d4e5f.jpg", ScreenshotKey(id))
	assert.Equal(t, "pages/7f9c24e5-2c63-4b1a-9d7e-0a1b2c3d4e5f.html", HTMLKey(id))
}

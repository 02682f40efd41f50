package files

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveCategory(t *testing.T) {
	cases := map[string]string{
		"photo.jpg":      CategoryImage,
		"PHOTO.JPG":      CategoryImage,
		"clip.mp4":       CategoryVideo,
		"song.flac":      CategoryAudio,
		"report.pdf":     CategoryDocument,
		"notes.md":       CategoryDocument,
		"backup.tar.gz":  CategoryArchive,
		"main.go":        CategoryCode,
		"setup.exe":      CategoryExecutable,
		"data.bin":       CategoryOther,
		"noextension":    CategoryOther,
		"weird.unknown9": CategoryOther,
	}
	for name, want := range cases {
		assert.Equal(t, want, DeriveCategory(name), "name %q", name)
	}
}

func TestExt(t *testing.T) {
	assert.Equal(t, "jpg", Ext("photo.jpg"))
	assert.Equal(t, "gz", Ext("backup.tar.gz"))
	assert.Equal(t, "", Ext("noextension"))
}

func TestStoredNameFor(t *testing.T) {
	assert.Equal(t, "abc123.png", StoredNameFor("abc123", "holiday.png"))
	assert.Equal(t, "abc123", StoredNameFor("abc123", "README"))
}

func TestDeriveMimeType(t *testing.T) {
	assert.Equal(t, "application/pdf", DeriveMimeType("report.pdf"))
	// Parameters like "; charset=utf-8" are stripped.
	assert.Equal(t, "text/html", DeriveMimeType("index.html"))
	assert.Equal(t, "application/octet-stream", DeriveMimeType("data.unknown9"))
	assert.Equal(t, "application/octet-stream", DeriveMimeType("noextension"))
}

// Package thumbnail produces downsized jpeg previews for stored images.
// Generation is always best effort: callers log and drop the error, a file
// without a thumbnail is perfectly fine.
package thumbnail

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	maxWidth  = 300
	maxHeight = 300

	jpegQuality = 80
)

// SupportedExtensions lists the image extensions a preview can be built from.
var SupportedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
	"bmp":  true,
}

// Supported reports whether a preview can be attempted for the extension
// (without the leading dot, any case).
func Supported(ext string) bool {
	return SupportedExtensions[strings.ToLower(ext)]
}

// Generate renders <id>.jpg under thumbsDir and returns its path relative to
// the storage root ("thumbnails/<id>.jpg"). It returns "" with no error when
// the source is small enough to be used directly — no point duplicating it.
func Generate(srcPath, id, thumbsDir string) (string, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	// Already thumbnail-sized, or close enough that a downscale buys nothing.
	if w <= maxWidth && h <= maxHeight {
		return "", nil
	}
	if w <= maxWidth*3/2 && h <= maxHeight*3/2 {
		return "", nil
	}

	tw, th := fit(w, h)
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)

	name := id + ".jpg"
	out, err := os.Create(filepath.Join(thumbsDir, name))
	if err != nil {
		return "", fmt.Errorf("create thumbnail: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}

	return "thumbnails/" + name, nil
}

// fit scales (w, h) down to the bounding box preserving aspect ratio.
func fit(w, h int) (int, int) {
	rw := float64(maxWidth) / float64(w)
	rh := float64(maxHeight) / float64(h)
	r := rw
	if rh < rw {
		r = rh
	}
	tw := int(float64(w) * r)
	th := int(float64(h) * r)
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	return tw, th
}

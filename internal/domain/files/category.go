package files

import (
	"mime"
	"path/filepath"
	"strings"
)

// Coarse file categories, derived from the extension once at creation and
// frozen afterwards.
const (
	CategoryImage      = "image"
	CategoryVideo      = "video"
	CategoryAudio      = "audio"
	CategoryDocument   = "document"
	CategoryArchive    = "archive"
	CategoryCode       = "code"
	CategoryExecutable = "executable"
	CategoryOther      = "other"
	CategoryFolder     = "folder"
)

// FileCategories lists every non-folder category, in breakdown order.
var FileCategories = []string{
	CategoryImage,
	CategoryVideo,
	CategoryAudio,
	CategoryDocument,
	CategoryArchive,
	CategoryCode,
	CategoryExecutable,
	CategoryOther,
}

// categoryExtensions maps known extensions to a category. Anything not listed
// is "other" — every file is accepted, there is no allow-list.
var categoryExtensions = map[string][]string{
	CategoryImage:      {"jpg", "jpeg", "png", "gif", "webp", "bmp", "svg", "ico", "tiff", "tif"},
	CategoryVideo:      {"mp4", "webm", "mov", "avi", "mkv", "flv", "wmv", "m4v", "3gp"},
	CategoryAudio:      {"mp3", "wav", "ogg", "flac", "aac", "wma", "m4a"},
	CategoryDocument:   {"pdf", "doc", "docx", "txt", "xls", "xlsx", "ppt", "pptx", "odt", "ods", "odp", "rtf", "csv", "md"},
	CategoryArchive:    {"zip", "rar", "7z", "tar", "gz", "bz2", "xz", "tgz"},
	CategoryCode:       {"py", "js", "ts", "jsx", "tsx", "html", "css", "json", "xml", "yaml", "yml", "go", "rs", "c", "cpp", "h", "java", "kt", "swift", "php", "rb", "sh", "bash", "sql", "vue", "svelte"},
	CategoryExecutable: {"exe", "msi", "app", "dmg", "deb", "rpm", "apk"},
}

var extToCategory = func() map[string]string {
	m := make(map[string]string)
	for cat, exts := range categoryExtensions {
		for _, ext := range exts {
			m[ext] = cat
		}
	}
	return m
}()

// Ext returns the extension of a display name without the leading dot,
// empty when there is none.
func Ext(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimPrefix(ext, ".")
}

// DeriveCategory classifies a file by its display name's extension.
func DeriveCategory(name string) string {
	if cat, ok := extToCategory[strings.ToLower(Ext(name))]; ok {
		return cat
	}
	return CategoryOther
}

// DeriveMimeType guesses a MIME type from the extension, defaulting to a
// generic binary type. Content is never sniffed; the type is frozen at
// creation like the category.
func DeriveMimeType(name string) string {
	ext := filepath.Ext(name)
	if ext != "" {
		if mt := mime.TypeByExtension(strings.ToLower(ext)); mt != "" {
			// Strip parameters like "; charset=utf-8".
			if i := strings.Index(mt, ";"); i >= 0 {
				mt = strings.TrimSpace(mt[:i])
			}
			return mt
		}
	}
	return "application/octet-stream"
}

// StoredNameFor derives the immutable on-disk filename for a record:
// "<id>.<ext>", or the bare id when the display name has no extension.
// Computed once at creation, never recomputed.
func StoredNameFor(id, displayName string) string {
	if ext := Ext(displayName); ext != "" {
		return id + "." + ext
	}
	return id
}

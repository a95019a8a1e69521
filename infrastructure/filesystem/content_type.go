package filesystem

import (
	"mime"
	"path/filepath"
	"strings"
)

// DefaultContentType is used when the extension is unknown.
const DefaultContentType = "application/octet-stream"

// extraTypes covers media formats missing from minimal mime.types tables.
var extraTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".wav":  "audio/wav",
}

// ContentType returns the MIME type for a file name based on its extension.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return DefaultContentType
	}
	if t, ok := extraTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return DefaultContentType
}

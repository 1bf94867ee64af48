// Package mediatype maps declared audio MIME types to file suffixes for the
// temporary artifacts handed to the transcription upstream.
package mediatype

import "strings"

// DefaultSuffix is returned for MIME types not in the table. The upstream
// sniffs content anyway, so an unknown type is not an error.
const DefaultSuffix = ".audio"

var suffixes = map[string]string{
	"audio/webm":  ".webm",
	"audio/mp4":   ".mp4",
	"audio/mpeg":  ".mp3",
	"audio/ogg":   ".ogg",
	"audio/wav":   ".wav",
	"audio/flac":  ".flac",
	"audio/x-m4a": ".m4a",
	"audio/m4a":   ".m4a",
	"audio/aac":   ".aac",
}

// SuffixFor returns the file suffix for a declared MIME type. Codec parameters
// ("audio/webm;codecs=opus") and case are ignored. Never fails: unknown types
// map to DefaultSuffix.
func SuffixFor(mimeType string) string {
	base := mimeType
	if i := strings.Index(base, ";"); i >= 0 {
		base = base[:i]
	}
	base = strings.ToLower(strings.TrimSpace(base))

	if s, ok := suffixes[base]; ok {
		return s
	}
	return DefaultSuffix
}

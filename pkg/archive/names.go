package archive

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// DefaultExtension is used whenever a photo address carries no recognised image extension.
const DefaultExtension = "jpg"

var (
	unsafeChars   = regexp.MustCompile(`[/\\:*?"<>|]`)
	trailingExt   = regexp.MustCompile(`\.([a-zA-Z0-9]+)(\?|$)`)

	imageExtensions = map[string]struct{}{
		"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {}, "bmp": {}, "tiff": {}, "svg": {},
	}
)

// Sanitize turns an arbitrary display string into a single archive path segment. The result may be
// empty; callers pick a fallback with OrFallback.
func Sanitize(name string) string {
	name = unsafeChars.ReplaceAllString(name, "_")
	return strings.Join(strings.FieldsFunc(name, isSpace), " ")
}

// isSpace covers Unicode whitespace, including NBSP and ideographic space, plus the BOM.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}

// OrFallback sanitizes name and returns fallback when nothing usable is left.
func OrFallback(name, fallback string) string {
	if s := Sanitize(name); s != "" {
		return s
	}
	return fallback
}

// ShortID returns the first eight characters of an identifier.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// ResolveExtension derives a lowercase image extension from a remote address.
func ResolveExtension(address string) string {
	match := trailingExt.FindStringSubmatch(address)
	if match == nil {
		return DefaultExtension
	}
	candidate := strings.ToLower(match[1])
	if _, ok := imageExtensions[candidate]; ok {
		return candidate
	}
	return DefaultExtension
}

// PhotoFilename renders "<NN>_<name>.<ext>" for the photo at zero-based position index.
func PhotoFilename(index int, displayName, address string) string {
	name := OrFallback(displayName, fmt.Sprintf("photo_%d", index+1))
	return fmt.Sprintf("%02d_%s.%s", index+1, name, ResolveExtension(address))
}

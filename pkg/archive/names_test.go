package archive

import (
	"regexp"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"Router  Principal":       "Router Principal",
		"  a/b\\c:d*e?f\"g<h>i|j ": "a_b_c_d_e_f_g_h_i_j",
		"line\tbreak\n\nhere":      "line break here",
		"":                         "",
		"   ":                      "",
		"José Pérez":               "José Pérez",
	}
	for in, want := range cases {
		require.Equal(t, want, Sanitize(in), "input %q", in)
	}
}

func TestSanitizeProperties(t *testing.T) {
	inputs := []string{
		"a  b", " /x/ ", "\t\t", "??**", "name\u00a0\u00a0with nbsp", "a\r\nb", `"quoted"`, "<>|:",
		"Juan\u00a0\u00a0Pérez", "a\v\vb", "a \u3000b", "\ufeffLead\ufeff", "x\u2003\u2009y", "\u00a0edge\u00a0",
	}
	forbidden := regexp.MustCompile(`[/\\:*?"<>|]`)
	for _, in := range inputs {
		out := Sanitize(in)
		require.False(t, forbidden.MatchString(out), "input %q -> %q", in, out)
		runes := []rune(out)
		for i, r := range runes {
			if i > 0 {
				require.False(t, unicode.IsSpace(r) && unicode.IsSpace(runes[i-1]), "input %q -> %q", in, out)
			}
			if i == 0 || i == len(runes)-1 {
				require.False(t, unicode.IsSpace(r), "input %q -> %q", in, out)
			}
		}
	}
}

func TestSanitizeUnicodeWhitespace(t *testing.T) {
	require.Equal(t, "Juan Pérez", Sanitize("Juan\u00a0\u00a0Pérez"))
	require.Equal(t, "a b", Sanitize("a\v\vb"))
	require.Equal(t, "a b", Sanitize("a \u3000b"))
	require.Equal(t, "Lead", Sanitize("\ufeffLead\ufeff"))
	require.Equal(t, "", Sanitize("\u00a0\u3000"))
}

func TestOrFallback(t *testing.T) {
	require.Equal(t, "item_0123abcd", OrFallback("  ", "item_"+ShortID("0123abcd-ffff-4444")))
	require.Equal(t, "Pole 7", OrFallback("Pole 7", "unused"))
	require.Equal(t, "abc", ShortID("abc"))
}

func TestResolveExtension(t *testing.T) {
	cases := map[string]string{
		"https://cdn.example/p/photo.PNG":                "png",
		"https://cdn.example/p/photo.jpeg?token=abc":     "jpeg",
		"https://cdn.example/p/photo.webp":               "webp",
		"https://cdn.example/p/photo.TIFF?x=1&y=2":       "tiff",
		"https://cdn.example/p/vector.svg":               "svg",
		"https://cdn.example/p/file.pdf":                 "jpg",
		"https://cdn.example/p/noext":                    "jpg",
		"https://cdn.example/p/photo.png#fragment":       "jpg",
		"https://res.cloudinary.com/x/image/upload/v1/a": "jpg",
		"":                                               "jpg",
	}
	for in, want := range cases {
		require.Equal(t, want, ResolveExtension(in), "url %q", in)
	}
}

func TestPhotoFilename(t *testing.T) {
	require.Equal(t, "01_Front view.png", PhotoFilename(0, "Front  view", "https://x/a.png"))
	require.Equal(t, "12_photo_12.jpg", PhotoFilename(11, "", "https://x/a"))
	require.Equal(t, "03_a_b.gif", PhotoFilename(2, "a/b", "https://x/a.GIF?v=2"))
}

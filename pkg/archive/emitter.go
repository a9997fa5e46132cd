package archive

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// ContentType is the media type of emitted archives.
const ContentType = "application/zip"

// Emitter serialises a finished Tree as a DEFLATE-compressed ZIP.
type Emitter struct {
	// Level is a flate compression level; zero selects flate.DefaultCompression.
	Level int
	// Modified stamps every entry. Zero means the time of the call.
	Modified time.Time
}

// WriteTo streams the archive into w without materialising the compressed output.
func (e Emitter) WriteTo(w io.Writer, tree *Tree) (int64, error) {
	counter := &countingWriter{w: w}
	zw := zip.NewWriter(counter)

	level := e.Level
	if level == 0 {
		level = flate.DefaultCompression
	}
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	modified := e.Modified
	if modified.IsZero() {
		modified = time.Now()
	}

	err := tree.Walk(func(name string, data []byte) error {
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("create entry %s: %w", name, err)
		}
		if _, err := entry.Write(data); err != nil {
			return fmt.Errorf("write entry %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		_ = zw.Close()
		return counter.n, err
	}
	if err := zw.Close(); err != nil {
		return counter.n, fmt.Errorf("finalise archive: %w", err)
	}
	return counter.n, nil
}

// Bytes encodes the archive into memory, for responses that advertise Content-Length.
func (e Emitter) Bytes(tree *Tree) ([]byte, error) {
	buf := &bytes.Buffer{}
	if _, err := e.WriteTo(buf, tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Disposition renders an attachment Content-Disposition for name. Non-ASCII names are also sent in
// the RFC 5987 filename* form with an ASCII fallback in filename.
func Disposition(name string) string {
	ascii := make([]rune, 0, len(name))
	plain := true
	for _, r := range name {
		switch {
		case r > 0x7e || r < 0x20:
			plain = false
			ascii = append(ascii, '_')
		case r == '"' || r == '\\':
			ascii = append(ascii, '_')
		default:
			ascii = append(ascii, r)
		}
	}
	header := fmt.Sprintf(`attachment; filename="%s"`, string(ascii))
	if !plain {
		header += "; filename*=UTF-8''" + strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	}
	return header
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

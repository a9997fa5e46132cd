package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	data := Dataset{Headers: []string{"path", "status", "reason"}}
	data.Append(map[string]string{"path": "Ana/Meter/01_front.jpg", "status": "ok"})
	data.Append(map[string]string{"path": "Ana/Meter", "status": "failed", "reason": "HTTP 404, retry later"})

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "path,status,reason", lines[0])
	assert.Equal(t, "Ana/Meter/01_front.jpg,ok,", lines[1])
	assert.Equal(t, `Ana/Meter,failed,"HTTP 404, retry later"`, lines[2])
}

func TestCSVExporterNeutralizesFormulas(t *testing.T) {
	data := Dataset{Headers: []string{"path"}}
	data.Append(map[string]string{"path": "=HYPERLINK(\"x\")"})
	data.Append(map[string]string{"path": "-unit"})

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"'=HYPERLINK(""x"")"`)
	assert.Contains(t, string(out), "'-unit")
}

func TestCSVExporterBOM(t *testing.T) {
	exporter := &CSVExporter{BOM: true}
	out, err := exporter.Render(Dataset{Headers: []string{"path"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), utf8BOM))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

package attila

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWriterWriteFile(t *testing.T) {
	s := DefaultSettings()
	s.SiteURL = "http://example.com"
	ctx := NewContext(s)
	w := NewWriter(t.TempDir(), s, zaptest.NewLogger(t))
	tmpl := template.Must(template.New("t").Parse(`{{.SITEURL}} {{.greeting}}`))

	require.NoError(t, w.WriteFile("nested/dir/out.html", tmpl, ctx, Vars{"greeting": "hi"}))

	b, err := os.ReadFile(filepath.Join(w.OutputPath(), "nested", "dir", "out.html"))
	require.NoError(t, err)
	assert.Equal(t, "http://example.com hi", string(b))
}

func TestWriterRenderTo(t *testing.T) {
	s := DefaultSettings()
	w := NewWriter(t.TempDir(), s, nil)

	var out bytes.Buffer
	ok := template.Must(template.New("ok").Parse(`{{.SITENAME}}`))
	require.NoError(t, w.RenderTo(&out, ok, NewContext(s), nil))
	assert.Equal(t, s.SiteName, out.String())

	out.Reset()
	bad := template.Must(template.New("bad").Parse(`before {{.SITENAME.Field}}`))
	assert.Error(t, w.RenderTo(&out, bad, NewContext(s), nil))
	assert.Empty(t, out.String(), "nothing written on failure")
}

func TestWriterRejectsEscapingPaths(t *testing.T) {
	w := NewWriter(t.TempDir(), DefaultSettings(), nil)

	_, err := w.OutputFile("../outside.html")
	assert.Error(t, err)

	path, err := w.OutputFile("tag/foo.html")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(w.OutputPath(), "tag", "foo.html"), path)
}

package attila

import (
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oxtoacart/bpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Vars are the template variables of one write on top of the context, such
// as "article" or "tag".
type Vars map[string]any

// Writer renders templates into files below its output path.
type Writer struct {
	outputPath string
	settings   *Settings
	bufpool    *bpool.BufferPool
	logger     *zap.Logger
}

func NewWriter(outputPath string, settings *Settings, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		outputPath: outputPath,
		settings:   settings,
		bufpool:    bpool.NewBufferPool(64),
		logger:     logger,
	}
}

func (w *Writer) OutputPath() string { return w.outputPath }

// OutputFile is where WriteFile puts saveAs.
func (w *Writer) OutputFile(saveAs string) (string, error) {
	out := filepath.Join(w.outputPath, filepath.FromSlash(saveAs))
	rel, err := filepath.Rel(w.outputPath, out)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("save path %q escapes the output directory", saveAs)
	}
	return out, nil
}

// RenderTo renders without touching the file system. Nothing is written to
// out when the template fails.
func (w *Writer) RenderTo(out io.Writer, tmpl *template.Template, ctx *Context, vars Vars) error {
	buf := w.bufpool.Get()
	defer w.bufpool.Put(buf)

	if err := tmpl.Execute(buf, ctx.templateData(vars)); err != nil {
		return errors.Wrapf(err, "execute template %q", tmpl.Name())
	}
	_, err := buf.WriteTo(out)
	return err
}

func (w *Writer) WriteFile(saveAs string, tmpl *template.Template, ctx *Context, vars Vars) error {
	path, err := w.OutputFile(saveAs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), os.FileMode(0775)); err != nil {
		return err
	}

	outFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer outFile.Close()

	if err := w.RenderTo(outFile, tmpl, ctx, vars); err != nil {
		return errors.Wrap(err, saveAs)
	}
	w.logger.Debug("Wrote file", zap.String("path", path))
	return outFile.Close()
}

package attila

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"
	"go.uber.org/zap"
)

// CopyThemeStatic copies the theme's static directory to THEME_STATIC_DIR.
func (w *Writer) CopyThemeStatic(theme string) error {
	srcDir := filepath.Join(theme, "static")
	if _, err := os.Stat(srcDir); os.IsNotExist(err) {
		return nil
	}
	dest := filepath.Join(w.outputPath, w.settings.ThemeStaticDir)
	w.logger.Info("Copying theme static files", zap.String("from", srcDir), zap.String("to", dest))
	return copy.Copy(srcDir, dest)
}

// CopyStatic copies every STATIC_PATHS entry of the content root to the same
// relative place in the output and records the copied files in the context.
func (w *Writer) CopyStatic(ctx *Context, contentPath string) error {
	for _, p := range ctx.Settings.StaticPaths {
		srcDir := filepath.Join(contentPath, p)
		if _, err := os.Stat(srcDir); os.IsNotExist(err) {
			continue
		}
		dest := filepath.Join(w.outputPath, p)
		w.logger.Info("Copying static files", zap.String("from", srcDir), zap.String("to", dest))
		if err := copy.Copy(srcDir, dest); err != nil {
			return err
		}

		err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			rel, err := filepath.Rel(contentPath, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			ctx.StaticContent[rel] = rel
			ctx.StaticLinks[rel] = struct{}{}
			ctx.Filenames[rel] = rel
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

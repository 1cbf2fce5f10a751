// Package attila is a static blog generator built around one theme. With
// articles, pages, authors, tags and categories, cover images, atom feeds.
//
// A build reads settings, runs the articles and pages generators over the
// content directory to fill a Context, and writes every entity through the
// theme's templates. The sitetest package drives the same pieces one entity
// at a time to check the theme's output.
package attila

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Site struct {
	settings *Settings
	logger   *zap.Logger
	drafts   bool
}

func NewSite(settings *Settings, logger *zap.Logger, drafts bool) *Site {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Site{settings: settings, logger: logger, drafts: drafts}
}

// Build generates the whole site into OUTPUT_PATH and returns the context
// it was rendered from.
func (s *Site) Build() (*Context, error) {
	conf := s.settings
	if err := os.MkdirAll(conf.OutputPath, os.FileMode(0775)); err != nil {
		return nil, errors.Wrap(err, "create output directory")
	}

	ctx := NewContext(conf)
	opts := []Option{WithLogger(s.logger), WithDrafts(s.drafts)}
	articles := NewArticlesGenerator(ctx, conf, conf.Path, conf.Theme, conf.OutputPath, opts...)
	pages := NewPagesGenerator(ctx, conf, conf.Path, conf.Theme, conf.OutputPath, opts...)
	writer := NewWriter(conf.OutputPath, conf, s.logger)

	if err := articles.GenerateContext(); err != nil {
		return nil, err
	}
	if err := pages.GenerateContext(); err != nil {
		return nil, err
	}
	if err := writer.CopyStatic(ctx, conf.Path); err != nil {
		return nil, errors.Wrap(err, "copy static files")
	}
	ctx.ResolveLinks(s.logger)

	s.logger.Info("Writing site", zap.String("output", conf.OutputPath))
	if err := articles.GenerateOutput(writer); err != nil {
		return nil, err
	}
	if err := pages.GenerateOutput(writer); err != nil {
		return nil, err
	}
	if err := writer.CopyThemeStatic(conf.Theme); err != nil {
		return nil, errors.Wrap(err, "copy theme static files")
	}
	return ctx, nil
}

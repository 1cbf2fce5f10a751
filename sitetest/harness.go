// Package sitetest generates one entity of a site the way a full build does,
// writes it through the theme, and hands back the parsed output so tests can
// check what the theme rendered.
//
// Each Harness writes to its own temporary output directory, so tests using
// separate harnesses never see each other's files.
package sitetest

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/thomas11/attila"
)

// ErrNotFound is returned when generation produced no entity with the
// requested slug or name.
var ErrNotFound = errors.New("entity not found")

const (
	// DefaultConfPath is the settings file the tests start from.
	DefaultConfPath = "testdata/default_conf.yaml"
	// ThemeDir is the repository's theme, relative to this package.
	ThemeDir = "../theme"
)

// LoadSettings reads the settings file at path, points THEME at the
// repository's theme and empties the filenames registry. Every call returns
// an independent value.
func LoadSettings(path string) (*attila.Settings, error) {
	s, err := attila.LoadSettings(path)
	if err != nil {
		return nil, err
	}
	s.Theme = ThemeDir
	s.Filenames = map[string]string{}
	return s, nil
}

type Harness struct {
	Settings   *attila.Settings
	ContentDir string
	OutputDir  string
	Readers    attila.Readers
	Writer     *attila.Writer

	logger *zap.Logger
}

type Option func(*Harness)

// WithContentDir replaces the settings' PATH as the directory to generate
// from.
func WithContentDir(dir string) Option {
	return func(h *Harness) { h.ContentDir = dir }
}

func WithLogger(logger *zap.Logger) Option {
	return func(h *Harness) { h.logger = logger }
}

// New returns a harness generating from settings into a fresh temporary
// directory owned by tb. Changes to settings made before a lookup apply to it.
func New(tb testing.TB, settings *attila.Settings, opts ...Option) *Harness {
	tb.Helper()

	h := &Harness{
		Settings:   settings,
		ContentDir: settings.Path,
		OutputDir:  tb.TempDir(),
		logger:     zaptest.NewLogger(tb),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.Readers = attila.NewReaders(settings, h.logger)
	h.Writer = attila.NewWriter(h.OutputDir, settings, h.logger)
	return h
}

func (h *Harness) options() []attila.Option {
	return []attila.Option{attila.WithLogger(h.logger), attila.WithReaders(h.Readers)}
}

func (h *Harness) articlesGenerator() (*attila.ArticlesGenerator, error) {
	ctx := attila.NewContext(h.Settings)
	g := attila.NewArticlesGenerator(ctx, h.Settings, h.ContentDir, h.Settings.Theme, h.OutputDir, h.options()...)
	if err := g.GenerateContext(); err != nil {
		return nil, errors.Wrap(err, "generate articles context")
	}
	return g, nil
}

// Article generates all articles, picks the one read from sourcePath and
// writes it through the article template.
//
// sourcePath is read on its own first; the generated article must carry the
// same slug, so a mismatch between the two shows up as ErrNotFound.
func (h *Harness) Article(sourcePath string) (*attila.Article, *Document, error) {
	content, meta, err := h.Readers.Read(sourcePath)
	if err != nil {
		return nil, nil, err
	}
	want := attila.NewArticle(content, meta, h.Settings)

	g, err := h.articlesGenerator()
	if err != nil {
		return nil, nil, err
	}
	article, ok := g.ArticleBySlug(want.Slug)
	if !ok {
		return nil, nil, errors.Wrapf(ErrNotFound, "article with slug %q from %v", want.Slug, sourcePath)
	}

	tmpl, err := g.GetTemplate("article")
	if err != nil {
		return nil, nil, err
	}
	if err := h.Writer.WriteFile(article.SaveAs, tmpl, g.Context(), attila.Vars{"article": article}); err != nil {
		return nil, nil, err
	}

	doc, err := h.open(article.SaveAs)
	return article, doc, err
}

// Page is Article for pages.
func (h *Harness) Page(sourcePath string) (*attila.Page, *Document, error) {
	content, meta, err := h.Readers.Read(sourcePath)
	if err != nil {
		return nil, nil, err
	}
	want := attila.NewPage(content, meta, h.Settings)

	ctx := attila.NewContext(h.Settings)
	g := attila.NewPagesGenerator(ctx, h.Settings, h.ContentDir, h.Settings.Theme, h.OutputDir, h.options()...)
	if err := g.GenerateContext(); err != nil {
		return nil, nil, errors.Wrap(err, "generate pages context")
	}
	page, ok := g.PageBySlug(want.Slug)
	if !ok {
		return nil, nil, errors.Wrapf(ErrNotFound, "page with slug %q from %v", want.Slug, sourcePath)
	}

	tmpl, err := g.GetTemplate("page")
	if err != nil {
		return nil, nil, err
	}
	if err := h.Writer.WriteFile(page.SaveAs, tmpl, g.Context(), attila.Vars{"page": page}); err != nil {
		return nil, nil, err
	}

	doc, err := h.open(page.SaveAs)
	return page, doc, err
}

// Author generates and writes every author page, then returns the one for
// name.
func (h *Harness) Author(name string) (*attila.Author, *Document, error) {
	return taxonomy(h, "author", name,
		(*attila.ArticlesGenerator).GenerateAuthors,
		(*attila.ArticlesGenerator).AuthorByName,
		func(a *attila.Author) string { return a.SaveAs })
}

// Tag generates and writes every tag page, then returns the one for name.
func (h *Harness) Tag(name string) (*attila.Tag, *Document, error) {
	return taxonomy(h, "tag", name,
		(*attila.ArticlesGenerator).GenerateTags,
		(*attila.ArticlesGenerator).TagByName,
		func(t *attila.Tag) string { return t.SaveAs })
}

// Category generates and writes every category page, then returns the one
// for name.
func (h *Harness) Category(name string) (*attila.Category, *Document, error) {
	return taxonomy(h, "category", name,
		(*attila.ArticlesGenerator).GenerateCategories,
		(*attila.ArticlesGenerator).CategoryByName,
		func(c *attila.Category) string { return c.SaveAs })
}

// Names only exist once the articles context is generated, so the lookup
// runs after generation.
func taxonomy[T any](
	h *Harness,
	kind, name string,
	generate func(*attila.ArticlesGenerator, attila.WriteFunc) error,
	lookup func(*attila.ArticlesGenerator, string) (T, bool),
	saveAs func(T) string,
) (T, *Document, error) {
	var zero T

	g, err := h.articlesGenerator()
	if err != nil {
		return zero, nil, err
	}
	if err := generate(g, h.Writer.WriteFile); err != nil {
		return zero, nil, errors.Wrapf(err, "generate %s pages", kind)
	}

	item, ok := lookup(g, name)
	if !ok {
		return zero, nil, errors.Wrapf(ErrNotFound, "%s %q", kind, name)
	}

	doc, err := h.open(saveAs(item))
	return item, doc, err
}

func (h *Harness) open(saveAs string) (*Document, error) {
	path, err := h.Writer.OutputFile(saveAs)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

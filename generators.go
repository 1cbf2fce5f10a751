package attila

import (
	"html/template"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// WriteFunc renders tmpl with the context and vars, and saves the result
// under saveAs. (*Writer).WriteFile is one.
type WriteFunc func(saveAs string, tmpl *template.Template, ctx *Context, vars Vars) error

type Option func(*generator)

func WithLogger(logger *zap.Logger) Option {
	return func(g *generator) { g.logger = logger }
}

func WithReaders(readers Readers) Option {
	return func(g *generator) { g.readers = readers }
}

// WithDrafts keeps articles and pages with the draft status.
func WithDrafts(drafts bool) Option {
	return func(g *generator) { g.drafts = drafts }
}

type generator struct {
	ctx        *Context
	settings   *Settings
	path       string
	theme      string
	outputPath string

	readers   Readers
	logger    *zap.Logger
	drafts    bool
	templates *templateEngine
}

func newGenerator(ctx *Context, settings *Settings, path, theme, outputPath string, opts []Option) generator {
	g := generator{
		ctx:        ctx,
		settings:   settings,
		path:       path,
		theme:      theme,
		outputPath: outputPath,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&g)
	}
	if g.readers == nil {
		g.readers = NewReaders(settings, g.logger)
	}
	g.templates = newTemplateEngine(filepath.Join(theme, "templates"))
	return g
}

func (g *generator) Context() *Context { return g.ctx }

// GetTemplate returns the theme template called name, e.g. "article".
func (g *generator) GetTemplate(name string) (*template.Template, error) {
	return g.templates.getTemplate(name)
}

type sourceFile struct {
	path string
	// Slash separated, relative to the content root.
	rel  string
	body string
	meta Metadata
}

// readContent reads every supported file below dir whose relative path keep
// accepts, in lexical order.
func (g *generator) readContent(dir string, keep func(rel string) bool) ([]sourceFile, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := findContentFiles(dir, func(path string) bool {
		rel, err := filepath.Rel(g.path, path)
		if err != nil {
			return false
		}
		return g.readers.Supports(path) && keep(filepath.ToSlash(rel))
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %v", dir)
	}

	sources := make([]sourceFile, 0, len(files))
	for _, f := range files {
		body, meta, err := g.readers.Read(f)
		if err != nil {
			return nil, errors.Wrapf(err, "read %v", f)
		}
		rel, _ := filepath.Rel(g.path, f)
		sources = append(sources, sourceFile{path: f, rel: filepath.ToSlash(rel), body: body, meta: meta})
	}
	return sources, nil
}

func (g *generator) register(c *Content, src sourceFile, entity any) error {
	if err := g.ctx.claimOutput(c.SaveAs, src.rel); err != nil {
		return err
	}
	c.Source = src.path
	c.relSource = src.rel
	g.ctx.GeneratedContent[src.rel] = entity
	g.ctx.Filenames[src.rel] = c.URL
	return nil
}

func underAny(rel string, dirs []string) bool {
	for _, d := range dirs {
		d = strings.Trim(filepath.ToSlash(d), "/")
		if d != "" && (rel == d || strings.HasPrefix(rel, d+"/")) {
			return true
		}
	}
	return false
}

// ArticlesGenerator turns the content tree, minus pages and static paths,
// into articles and the authors, tags and categories they refer to.
type ArticlesGenerator struct {
	generator
}

func NewArticlesGenerator(ctx *Context, settings *Settings, path, theme, outputPath string, opts ...Option) *ArticlesGenerator {
	return &ArticlesGenerator{newGenerator(ctx, settings, path, theme, outputPath, opts)}
}

func (g *ArticlesGenerator) GenerateContext() error {
	excluded := slices.Concat(g.settings.PagePaths, g.settings.ArticleExcludes, g.settings.StaticPaths)
	sources, err := g.readContent(g.path, func(rel string) bool {
		return !underAny(rel, excluded)
	})
	if err != nil {
		return err
	}

	var all []*Article
	for _, src := range sources {
		a := NewArticle(src.body, src.meta, g.settings)
		if a.Title == "" {
			g.logger.Warn("Skipping article without title", zap.String("source", src.path))
			continue
		}
		if a.IsDraft() && !g.drafts {
			g.logger.Debug("Skipping draft", zap.String("source", src.path))
			continue
		}
		if err := g.register(&a.Content, src, a); err != nil {
			return err
		}
		if a.IsHidden() {
			g.ctx.HiddenArticles = append(g.ctx.HiddenArticles, a)
			continue
		}
		all = append(all, a)
	}

	// Order articles by date.
	sort.Stable(articles(all))
	g.ctx.Articles = all

	g.ctx.Authors = groupBy(all, func(a *Article) []*Author { return a.Authors })
	g.ctx.Tags = groupBy(all, func(a *Article) []*Tag { return a.Tags })
	g.ctx.Categories = groupBy(all, func(a *Article) []*Category { return []*Category{a.Category} })

	for _, a := range g.ctx.Articles {
		g.ctx.resolveLinks(&a.Content, g.logger)
	}

	g.logger.Info("Generated articles context",
		zap.Int("articles", len(g.ctx.Articles)),
		zap.Int("authors", len(g.ctx.Authors)),
		zap.Int("tags", len(g.ctx.Tags)),
		zap.Int("categories", len(g.ctx.Categories)))
	return nil
}

func (g *ArticlesGenerator) ArticleBySlug(slug string) (*Article, bool) { return g.ctx.ArticleBySlug(slug) }

func (g *ArticlesGenerator) AuthorByName(name string) (*Author, bool) { return g.ctx.AuthorByName(name) }

func (g *ArticlesGenerator) TagByName(name string) (*Tag, bool) { return g.ctx.TagByName(name) }

func (g *ArticlesGenerator) CategoryByName(name string) (*Category, bool) {
	return g.ctx.CategoryByName(name)
}

func (g *ArticlesGenerator) GenerateArticles(write WriteFunc) error {
	for _, a := range slices.Concat(g.ctx.Articles, g.ctx.HiddenArticles) {
		tmpl, err := g.GetTemplate(a.Template)
		if err != nil {
			return err
		}
		if err := write(a.SaveAs, tmpl, g.ctx, Vars{"article": a}); err != nil {
			return err
		}
	}
	return nil
}

func (g *ArticlesGenerator) GenerateIndex(write WriteFunc) error {
	if g.settings.IndexSaveAs == "" {
		return nil
	}
	tmpl, err := g.GetTemplate("index")
	if err != nil {
		return err
	}
	return write(g.settings.IndexSaveAs, tmpl, g.ctx, Vars{"articles_page": g.ctx.Articles})
}

func (g *ArticlesGenerator) GenerateAuthors(write WriteFunc) error {
	return generateTaxonomy(g, "author", g.ctx.Authors, write)
}

func (g *ArticlesGenerator) GenerateTags(write WriteFunc) error {
	return generateTaxonomy(g, "tag", g.ctx.Tags, write)
}

func (g *ArticlesGenerator) GenerateCategories(write WriteFunc) error {
	return generateTaxonomy(g, "category", g.ctx.Categories, write)
}

func generateTaxonomy[T named](g *ArticlesGenerator, kind string, groups Groups[T], write WriteFunc) error {
	tmpl, err := g.GetTemplate(kind)
	if err != nil {
		return err
	}
	for _, group := range groups {
		item := group.Item.base()
		if item.SaveAs == "" {
			continue
		}
		err := write(item.SaveAs, tmpl, g.ctx, Vars{kind: group.Item, "articles_page": group.Articles})
		if err != nil {
			return err
		}
	}
	return nil
}

// GenerateOutput writes articles, the index, every taxonomy page and the
// feeds.
func (g *ArticlesGenerator) GenerateOutput(w *Writer) error {
	steps := []func(WriteFunc) error{
		g.GenerateArticles,
		g.GenerateIndex,
		g.GenerateAuthors,
		g.GenerateTags,
		g.GenerateCategories,
	}
	for _, step := range steps {
		if err := step(w.WriteFile); err != nil {
			return err
		}
	}
	return g.GenerateFeeds(w)
}

// PagesGenerator turns the PAGE_PATHS directories into pages.
type PagesGenerator struct {
	generator
}

func NewPagesGenerator(ctx *Context, settings *Settings, path, theme, outputPath string, opts ...Option) *PagesGenerator {
	return &PagesGenerator{newGenerator(ctx, settings, path, theme, outputPath, opts)}
}

func (g *PagesGenerator) GenerateContext() error {
	excluded := g.settings.StaticPaths
	for _, dir := range g.settings.PagePaths {
		sources, err := g.readContent(filepath.Join(g.path, dir), func(rel string) bool {
			return !underAny(rel, excluded)
		})
		if err != nil {
			return err
		}

		for _, src := range sources {
			p := NewPage(src.body, src.meta, g.settings)
			if p.Title == "" {
				g.logger.Warn("Skipping page without title", zap.String("source", src.path))
				continue
			}
			if p.IsDraft() && !g.drafts {
				continue
			}
			if err := g.register(&p.Content, src, p); err != nil {
				return err
			}
			if p.IsHidden() {
				g.ctx.HiddenPages = append(g.ctx.HiddenPages, p)
			} else {
				g.ctx.Pages = append(g.ctx.Pages, p)
			}
		}
	}

	for _, p := range slices.Concat(g.ctx.Pages, g.ctx.HiddenPages) {
		g.ctx.resolveLinks(&p.Content, g.logger)
	}

	g.logger.Info("Generated pages context", zap.Int("pages", len(g.ctx.Pages)), zap.Int("hidden", len(g.ctx.HiddenPages)))
	return nil
}

func (g *PagesGenerator) PageBySlug(slug string) (*Page, bool) { return g.ctx.PageBySlug(slug) }

func (g *PagesGenerator) GeneratePages(write WriteFunc) error {
	for _, p := range slices.Concat(g.ctx.Pages, g.ctx.HiddenPages) {
		tmpl, err := g.GetTemplate(p.Template)
		if err != nil {
			return err
		}
		if err := write(p.SaveAs, tmpl, g.ctx, Vars{"page": p}); err != nil {
			return err
		}
	}
	return nil
}

func (g *PagesGenerator) GenerateOutput(w *Writer) error {
	return g.GeneratePages(w.WriteFile)
}

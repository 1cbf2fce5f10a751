package attila

import (
	"html/template"
	"path"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrDuplicateOutput is returned when two sources would be written to the
// same output file.
var ErrDuplicateOutput = errors.New("duplicate output path")

// Context is the state generators fill and templates read. Build a fresh one
// per generation run with NewContext.
type Context struct {
	Settings     *Settings
	LocalSiteURL string

	// Source path (relative to the content root) to generated entity.
	GeneratedContent map[string]any
	StaticLinks      map[string]struct{}
	// Static source path to output path.
	StaticContent map[string]string
	// Source path to output URL, used for {filename} links.
	Filenames map[string]string
	// Output path to the source claiming it.
	outputs map[string]string

	Articles       []*Article
	HiddenArticles []*Article
	Pages          []*Page
	HiddenPages    []*Page
	Authors        Groups[*Author]
	Tags           Groups[*Tag]
	Categories     Groups[*Category]
}

func NewContext(settings *Settings) *Context {
	s := settings.Clone()
	return &Context{
		Settings:         s,
		LocalSiteURL:     s.SiteURL,
		GeneratedContent: map[string]any{},
		StaticLinks:      map[string]struct{}{},
		StaticContent:    map[string]string{},
		Filenames:        s.Filenames,
		outputs:          map[string]string{},
	}
}

// ArticleBySlug finds published and hidden articles.
func (c *Context) ArticleBySlug(slug string) (*Article, bool) {
	for _, a := range c.Articles {
		if a.Slug == slug {
			return a, true
		}
	}
	for _, a := range c.HiddenArticles {
		if a.Slug == slug {
			return a, true
		}
	}
	return nil, false
}

func (c *Context) PageBySlug(slug string) (*Page, bool) {
	for _, p := range c.Pages {
		if p.Slug == slug {
			return p, true
		}
	}
	for _, p := range c.HiddenPages {
		if p.Slug == slug {
			return p, true
		}
	}
	return nil, false
}

func (c *Context) AuthorByName(name string) (*Author, bool) { return c.Authors.ByName(name) }

func (c *Context) TagByName(name string) (*Tag, bool) { return c.Tags.ByName(name) }

func (c *Context) CategoryByName(name string) (*Category, bool) { return c.Categories.ByName(name) }

// claimOutput records that source is written to saveAs, failing when another
// source already is.
func (c *Context) claimOutput(saveAs, source string) error {
	if saveAs == "" {
		return nil
	}
	if other, ok := c.outputs[saveAs]; ok && other != source {
		return errors.Wrapf(ErrDuplicateOutput, "%v and %v both write %v", other, source, saveAs)
	}
	c.outputs[saveAs] = source
	return nil
}

// templateData merges the context with call specific variables.
func (c *Context) templateData(vars Vars) map[string]any {
	s := c.Settings
	data := map[string]any{
		"SITENAME":                   s.SiteName,
		"SITEURL":                    c.LocalSiteURL,
		"AUTHOR":                     s.Author,
		"THEME_STATIC_DIR":           s.ThemeStaticDir,
		"FEED_ALL_ATOM":              s.FeedAllAtom,
		"HEADER_COVER":               s.HeaderCover,
		"HEADER_COLOR":               s.HeaderColor,
		"SHOW_AUTHOR_BIO_IN_ARTICLE": s.ShowAuthorBioInArticle,
		"articles":                   c.Articles,
		"pages":                      c.Pages,
		"authors":                    c.Authors,
		"tags":                       c.Tags,
		"categories":                 c.Categories,
	}
	for k, v := range vars {
		data[k] = v
	}
	return data
}

var filenameLink = regexp.MustCompile(`\{filename\}([^"'\s<>]+)`)

// resolveLinks rewrites {filename} links in c's body to the URL of the
// referenced source. Links to unknown sources are left as they are.
func (c *Context) resolveLinks(content *Content, logger *zap.Logger) {
	if !strings.Contains(string(content.Body), "{filename}") {
		return
	}
	dir := path.Dir(content.relSource)
	body := filenameLink.ReplaceAllStringFunc(string(content.Body), func(m string) string {
		ref := filenameLink.FindStringSubmatch(m)[1]
		anchor := ""
		if i := strings.IndexByte(ref, '#'); i >= 0 {
			ref, anchor = ref[:i], ref[i:]
		}
		target := path.Clean(path.Join(dir, ref))
		if strings.HasPrefix(ref, "/") {
			target = path.Clean(strings.TrimPrefix(ref, "/"))
		}
		u, ok := c.Filenames[target]
		if !ok {
			logger.Warn("Unable to find link target", zap.String("source", content.Source), zap.String("target", target))
			return m
		}
		return resolveURL(c.LocalSiteURL, u) + anchor
	})
	content.Body = template.HTML(body)
}

// ResolveLinks rewrites {filename} links in every generated entity. Call it
// once all generators have run so links across generators resolve.
func (c *Context) ResolveLinks(logger *zap.Logger) {
	for _, a := range c.Articles {
		c.resolveLinks(&a.Content, logger)
	}
	for _, a := range c.HiddenArticles {
		c.resolveLinks(&a.Content, logger)
	}
	for _, p := range c.Pages {
		c.resolveLinks(&p.Content, logger)
	}
	for _, p := range c.HiddenPages {
		c.resolveLinks(&p.Content, logger)
	}
}

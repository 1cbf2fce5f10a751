package attila

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	atom "github.com/thomas11/atomgenerator"
	"go.uber.org/zap"
)

// GenerateFeeds writes the all-articles feed and one feed per category. Feeds
// need absolute links, so nothing is written without SITEURL.
func (g *ArticlesGenerator) GenerateFeeds(w *Writer) error {
	if g.ctx.LocalSiteURL == "" {
		g.logger.Info("SITEURL is empty, skipping feeds")
		return nil
	}

	if g.settings.FeedAllAtom != "" {
		err := w.WriteFeed(g.settings.FeedAllAtom, g.settings.SiteName, "", g.ctx, g.ctx.Articles)
		if err != nil {
			return err
		}
	}

	if g.settings.CategoryFeedAtom == "" {
		return nil
	}
	for _, c := range g.ctx.Categories {
		title := g.settings.SiteName + ` Category "` + c.Item.Name + `."`
		saveAs := strings.ReplaceAll(g.settings.CategoryFeedAtom, "{slug}", c.Item.Slug)
		if err := w.WriteFeed(saveAs, title, c.Item.URL, g.ctx, c.Articles); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) renderFeed(title, relUrl string, ctx *Context, articles []*Article) ([]byte, error) {
	feed := atom.Feed{
		Title:   title,
		Link:    resolveURL(ctx.LocalSiteURL, relUrl),
		PubDate: time.Now(),
	}
	feed.AddAuthor(atom.Author{
		Name: w.settings.Author,
		Uri:  ctx.LocalSiteURL,
	})

	for _, a := range articles {
		feed.AddEntry(entryForArticle(ctx, a))
	}

	if errs := feed.Validate(); len(errs) > 0 {
		for _, e := range errs {
			w.logger.Warn("Atom feed is not valid", zap.String("feed", title), zap.Error(e))
		}
		return nil, errs[0]
	}

	return feed.GenXml()
}

func entryForArticle(ctx *Context, a *Article) *atom.Entry {
	e := &atom.Entry{
		Title:       a.Title,
		Description: a.Summary,
		Link:        resolveURL(ctx.LocalSiteURL, a.URL),
		PubDate:     a.Date,
		Content:     string(a.Body),
	}

	if a.Category != nil {
		e.AddCategory(atom.Category{Term: a.Category.Name})
	}
	for _, t := range a.Tags {
		e.AddCategory(atom.Category{Term: t.Name})
	}
	return e
}

// WriteFeed saves an atom feed of articles under saveAs. link is the page the
// feed belongs to, relative to SITEURL.
func (w *Writer) WriteFeed(saveAs, title, link string, ctx *Context, articles []*Article) error {
	atomXml, err := w.renderFeed(title, link, ctx, articles)
	if err != nil {
		return errors.Wrapf(err, "feed %v", saveAs)
	}

	path, err := w.OutputFile(saveAs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), os.FileMode(0775)); err != nil {
		return err
	}
	return os.WriteFile(path, atomXml, os.FileMode(0664))
}

package attila

import (
	"html"
	"html/template"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	StatusPublished = "published"
	StatusDraft     = "draft"
	StatusHidden    = "hidden"
)

// Content is what articles and pages have in common.
type Content struct {
	Title    string
	Slug     string
	Date     time.Time
	Modified time.Time
	Body     template.HTML
	Summary  string
	Cover    string
	OGImage  string
	Authors  []*Author
	Status   string
	Template string

	// Source file, as given to the reader.
	Source string
	URL    string
	SaveAs string

	relSource  string
	dateFormat string
}

// Called from templates
func (c *Content) FormatDate() string {
	return c.Date.Format(c.dateFormat)
}

func (c *Content) IsDraft() bool { return c.Status == StatusDraft }

func (c *Content) IsHidden() bool { return c.Status == StatusHidden }

type Article struct {
	Content
	Category *Category
	Tags     []*Tag
}

type Page struct {
	Content
}

type articles []*Article

func (as articles) Len() int           { return len(as) }
func (as articles) Swap(i, j int)      { as[i], as[j] = as[j], as[i] }
func (as articles) Less(i, j int) bool { return as[i].Date.After(as[j].Date) }

func (as articles) latestDate() time.Time {
	var t time.Time
	for _, a := range as {
		if a.Date.After(t) {
			t = a.Date
		}
	}
	return t
}

// NewArticle builds an article the same way the articles generator does, so
// an independently read source yields the same slug and save path.
func NewArticle(content string, meta Metadata, settings *Settings) *Article {
	a := &Article{Content: newContent(content, meta, settings, "article")}

	categoryName := meta.Category
	if categoryName == "" {
		categoryName = settings.DefaultCategory
	}
	a.Category = newCategory(categoryName, settings)
	for _, t := range meta.Tags {
		a.Tags = append(a.Tags, newTag(t, settings))
	}

	a.URL = expandPattern(settings.ArticleURL, a.Slug, a.Category.Slug, a.Date)
	a.SaveAs = expandPattern(settings.ArticleSaveAs, a.Slug, a.Category.Slug, a.Date)
	a.applyPathOverrides(meta)
	return a
}

func NewPage(content string, meta Metadata, settings *Settings) *Page {
	p := &Page{Content: newContent(content, meta, settings, "page")}
	p.URL = expandPattern(settings.PageURL, p.Slug, "", p.Date)
	p.SaveAs = expandPattern(settings.PageSaveAs, p.Slug, "", p.Date)
	p.applyPathOverrides(meta)
	return p
}

func newContent(content string, meta Metadata, settings *Settings, defaultTemplate string) Content {
	c := Content{
		Title:      meta.Title,
		Slug:       meta.Slug,
		Date:       meta.Date,
		Modified:   meta.Modified,
		Body:       template.HTML(content),
		Summary:    meta.Summary,
		Cover:      meta.Cover,
		OGImage:    meta.OGImage,
		Status:     meta.Status,
		Template:   meta.Template,
		dateFormat: settings.DefaultDateFormat,
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Title)
	}
	if c.Status == "" {
		c.Status = StatusPublished
	}
	if c.Template == "" {
		c.Template = defaultTemplate
	}
	if c.Summary == "" {
		c.Summary = summarize(content, settings.SummaryMaxLength)
	}

	authors := meta.Authors
	if len(authors) == 0 && settings.Author != "" {
		authors = []string{settings.Author}
	}
	for _, name := range authors {
		c.Authors = append(c.Authors, newAuthor(name, settings))
	}
	return c
}

func (c *Content) applyPathOverrides(meta Metadata) {
	if meta.URL != "" {
		c.URL = meta.URL
	}
	if meta.SaveAs != "" {
		c.SaveAs = meta.SaveAs
	}
}

func expandPattern(pattern, slug, category string, date time.Time) string {
	r := strings.NewReplacer(
		"{slug}", slug,
		"{category}", category,
		"{year}", date.Format("2006"),
		"{month}", date.Format("01"),
		"{day}", date.Format("02"),
	)
	return filepath.ToSlash(r.Replace(pattern))
}

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases s, drops diacritics and joins runs of letters and digits
// with single dashes.
func Slugify(s string) string {
	if folded, _, err := transform.String(stripDiacritics, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

var textOnly = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

func summarize(content string, maxWords int) string {
	text := html.UnescapeString(textOnly.Sanitize(content))
	words := strings.Fields(text)
	if maxWords > 0 && len(words) > maxWords {
		return strings.Join(words[:maxWords], " ") + "…"
	}
	return strings.Join(words, " ")
}

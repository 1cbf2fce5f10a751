package attila

import (
	"bytes"
	"cmp"
	"slices"
	"strings"
)

// Taxonomy is the part authors, tags and categories share: a name, where its
// archive page goes, and the overrides configured for it.
type Taxonomy struct {
	Name   string
	Slug   string
	URL    string
	SaveAs string
	Meta   TaxonomyMeta
}

func (t *Taxonomy) String() string { return t.Name }

// Cover is the cover image configured for this name, if any.
func (t *Taxonomy) Cover() string { return t.Meta.Cover }

func (t *Taxonomy) base() *Taxonomy { return t }

type Author struct{ Taxonomy }

type Tag struct{ Taxonomy }

type Category struct{ Taxonomy }

func newTaxonomy(name, urlPattern, saveAsPattern string, meta map[string]TaxonomyMeta) Taxonomy {
	slug := Slugify(name)
	return Taxonomy{
		Name:   name,
		Slug:   slug,
		URL:    strings.ReplaceAll(urlPattern, "{slug}", slug),
		SaveAs: strings.ReplaceAll(saveAsPattern, "{slug}", slug),
		Meta:   meta[name],
	}
}

func newAuthor(name string, s *Settings) *Author {
	return &Author{newTaxonomy(name, s.AuthorURL, s.AuthorSaveAs, s.AuthorMeta)}
}

func newTag(name string, s *Settings) *Tag {
	return &Tag{newTaxonomy(name, s.TagURL, s.TagSaveAs, s.TagMeta)}
}

func newCategory(name string, s *Settings) *Category {
	return &Category{newTaxonomy(name, s.CategoryURL, s.CategorySaveAs, s.CategoryMeta)}
}

type SocialLink struct {
	Network string
	URL     string
}

var socialURLPrefixes = []struct{ network, prefix string }{
	{"twitter", "https://twitter.com/"},
	{"facebook", "https://www.facebook.com/"},
	{"linkedin", "https://www.linkedin.com/in/"},
	{"github", "https://github.com/"},
	{"gitlab", "https://gitlab.com/"},
	{"instagram", "https://www.instagram.com/"},
}

// SocialLinks expands the configured handles into profile URLs, website first.
func (m TaxonomyMeta) SocialLinks() []SocialLink {
	handles := map[string]string{
		"twitter":   m.Twitter,
		"facebook":  m.Facebook,
		"linkedin":  m.LinkedIn,
		"github":    m.GitHub,
		"gitlab":    m.GitLab,
		"instagram": m.Instagram,
	}

	var links []SocialLink
	if m.Website != "" {
		links = append(links, SocialLink{"website", m.Website})
	}
	for _, n := range socialURLPrefixes {
		handle := strings.TrimPrefix(handles[n.network], "@")
		if handle == "" {
			continue
		}
		links = append(links, SocialLink{n.network, n.prefix + handle})
	}
	return links
}

type named interface {
	base() *Taxonomy
}

// Group is one author, tag or category with the articles referring to it.
type Group[T named] struct {
	Item     T
	Articles []*Article
}

// Groups are ordered by the number of articles, then by newest article.
// Create using groupBy which sorts like this.
type Groups[T named] []Group[T]

// add files a under item. Names that slugify the same share one group, the
// first name seen wins.
func (gs *Groups[T]) add(item T, a *Article) {
	for i, g := range *gs {
		if g.Item.base().Slug == item.base().Slug {
			(*gs)[i].Articles = append(g.Articles, a)
			return
		}
	}
	*gs = append(*gs, Group[T]{Item: item, Articles: []*Article{a}})
}

// ByName returns the entity called name, and false if no article refers to it.
// Names are compared by slug.
func (gs Groups[T]) ByName(name string) (T, bool) {
	slug := Slugify(name)
	for _, g := range gs {
		if g.Item.base().Slug == slug {
			return g.Item, true
		}
	}
	var zero T
	return zero, false
}

func (gs Groups[T]) String() string {
	b := new(bytes.Buffer)
	for _, g := range gs {
		b.WriteString(g.Item.base().Name)
		b.WriteString(": ")
		for i, a := range g.Articles {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.Title)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func groupBy[T named](as []*Article, itemsOf func(*Article) []T) Groups[T] {
	groups := make(Groups[T], 0, 20)
	for _, a := range as {
		for _, item := range itemsOf(a) {
			groups.add(item, a)
		}
	}

	slices.SortFunc(groups, func(a, b Group[T]) int {
		// More articles = comes first
		if c := cmp.Compare(len(b.Articles), len(a.Articles)); c != 0 {
			return c
		}
		if c := articles(b.Articles).latestDate().Compare(articles(a.Articles).latestDate()); c != 0 {
			return c
		}
		return cmp.Compare(a.Item.base().Name, b.Item.base().Name)
	})

	return groups
}

package sitetest_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomas11/attila"
	"github.com/thomas11/attila/sitetest"
)

func TestLoadSettings(t *testing.T) {
	s := defaultSettings(t)

	assert.Equal(t, sitetest.ThemeDir, s.Theme)
	assert.Empty(t, s.Filenames)
	assert.Equal(t, "raj", s.Author)
	assert.Equal(t, filepath.Join("testdata", "content"), s.Path)
}

func TestLoadSettingsReturnsIndependentValues(t *testing.T) {
	first := defaultSettings(t)
	first.SiteURL = "http://changed.example.com"
	first.TagMeta["footag"] = attila.TaxonomyMeta{Cover: "/changed.jpg"}
	first.Filenames["x.text"] = "x.html"

	second := defaultSettings(t)
	assert.Empty(t, second.SiteURL)
	assert.Empty(t, second.TagMeta)
	assert.Empty(t, second.Filenames)
}

func TestLookupMisses(t *testing.T) {
	h := sitetest.New(t, defaultSettings(t))

	cases := []struct {
		name   string
		lookup func() error
	}{
		{"draft article", func() error {
			_, _, err := h.Article(contentPath("draft_article.text"))
			return err
		}},
		{"article read as page", func() error {
			_, _, err := h.Page(contentPath("article_with_cover_image.text"))
			return err
		}},
		{"author", func() error {
			_, _, err := h.Author("nobody")
			return err
		}},
		{"tag", func() error {
			_, _, err := h.Tag("notag")
			return err
		}},
		{"category", func() error {
			_, _, err := h.Category("nocategory")
			return err
		}},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			err := test.lookup()
			require.Error(t, err)
			assert.True(t, errors.Is(err, sitetest.ErrNotFound), "got %v", err)
		})
	}
}

func TestMissingSourceFile(t *testing.T) {
	_, _, err := sitetest.New(t, defaultSettings(t)).Article(contentPath("no_such_article.text"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
}

func TestOutputDirectoriesAreIsolated(t *testing.T) {
	s := defaultSettings(t)
	first := sitetest.New(t, s)
	second := sitetest.New(t, s)
	require.NotEqual(t, first.OutputDir, second.OutputDir)

	article, _, err := first.Article(contentPath("article_with_cover_image.text"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(first.OutputDir, article.SaveAs))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(second.OutputDir, article.SaveAs))
	assert.True(t, os.IsNotExist(err))
}

func TestArticleMatchesIndependentRead(t *testing.T) {
	article, doc, err := sitetest.New(t, defaultSettings(t)).Article(contentPath("article_with_cover_image.text"))
	require.NoError(t, err)

	assert.Equal(t, "article-with-cover-image", article.Slug)
	assert.Equal(t, "article-with-cover-image.html", article.SaveAs)
	assert.Equal(t, "Article with cover image", doc.Find("h1", "post-title").Text())
	assert.Equal(t, "foo", article.Category.Name)
	require.Len(t, article.Tags, 1)
	assert.Equal(t, "footag", article.Tags[0].Name)
}

func TestTaxonomyPagesAreAllWritten(t *testing.T) {
	h := sitetest.New(t, defaultSettings(t))

	_, _, err := h.Tag("footag")
	require.NoError(t, err)

	for _, saveAs := range []string{"tag/footag.html", "tag/bartag.html"} {
		_, err := os.Stat(filepath.Join(h.OutputDir, saveAs))
		assert.NoError(t, err, saveAs)
	}
}

func TestFilenameLinksResolve(t *testing.T) {
	s := defaultSettings(t)
	s.SiteURL = "http://www.example.com"

	_, doc, err := sitetest.New(t, s).Article(contentPath("article_without_cover.text"))
	require.NoError(t, err)

	link := doc.Find("section", "post-content").Find("a", "")
	require.NotNil(t, link)
	assert.Equal(t, "http://www.example.com/article-with-cover-image.html", link.Attr("href"))
}

func TestTagPageListsItsArticles(t *testing.T) {
	_, doc, err := sitetest.New(t, defaultSettings(t)).Tag("bartag")
	require.NoError(t, err)

	var titles []string
	for _, n := range doc.FindAll("h2", "post-title") {
		titles = append(titles, n.Text())
	}
	assert.Equal(t, []string{"Article with http cover image", "Article without cover"}, titles)
}

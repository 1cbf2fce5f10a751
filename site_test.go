package attila

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func buildTestSite(t *testing.T, drafts bool) (*Settings, *Context) {
	t.Helper()
	s, err := LoadSettings(filepath.Join("testdata", "site", "attila.yaml"))
	require.NoError(t, err)
	s.OutputPath = t.TempDir()

	ctx, err := NewSite(s, zaptest.NewLogger(t), drafts).Build()
	require.NoError(t, err)
	return s, ctx
}

func readOutput(t *testing.T, s *Settings, saveAs string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(s.OutputPath, filepath.FromSlash(saveAs)))
	require.NoError(t, err)
	return string(b)
}

func TestSiteBuild(t *testing.T) {
	s, ctx := buildTestSite(t, false)

	require.Len(t, ctx.Articles, 2)
	assert.Equal(t, "second-post", ctx.Articles[0].Slug, "newest first")
	assert.Equal(t, "hello-world", ctx.Articles[1].Slug)
	require.Len(t, ctx.Pages, 1)
	require.Len(t, ctx.HiddenPages, 1)

	for _, saveAs := range []string{
		"index.html",
		"hello-world.html",
		"second-post.html",
		"pages/about.html",
		"pages/secret.html",
		"author/jane-doe.html",
		"author/john-roe.html",
		"tag/golang.html",
		"tag/testing.html",
		"category/go-notes.html",
		"category/misc.html",
		"feeds/all.atom.xml",
		"feeds/go-notes.atom.xml",
		"images/logo.txt",
		"theme/css/style.css",
	} {
		_, err := os.Stat(filepath.Join(s.OutputPath, filepath.FromSlash(saveAs)))
		assert.NoError(t, err, saveAs)
	}

	_, err := os.Stat(filepath.Join(s.OutputPath, "not-yet.html"))
	assert.True(t, os.IsNotExist(err), "drafts are not written")

	assert.Equal(t, "images/logo.txt", ctx.StaticContent["images/logo.txt"])
	assert.Contains(t, ctx.StaticLinks, "images/logo.txt")
	assert.Equal(t, "pages/about.html", ctx.Filenames["pages/about.md"])
	assert.IsType(t, &Page{}, ctx.GeneratedContent["pages/about.md"])
}

func TestSiteBuildResolvesLinksAcrossGenerators(t *testing.T) {
	_, ctx := buildTestSite(t, false)

	hello, ok := ctx.ArticleBySlug("hello-world")
	require.True(t, ok)
	body := string(hello.Body)
	assert.Contains(t, body, `href="http://www.example.com/pages/about.html"`)
	assert.Contains(t, body, `href="http://www.example.com/images/logo.txt"`)
	assert.NotContains(t, body, "{filename}")
}

func TestSiteBuildRendersTheme(t *testing.T) {
	s, _ := buildTestSite(t, false)

	category := readOutput(t, s, "category/go-notes.html")
	assert.Contains(t, category, `class="blog-cover cover"`)
	assert.Contains(t, category, `src="http://www.example.com/images/go.jpg"`)
	assert.Contains(t, category, "#1f2b3c")

	second := readOutput(t, s, "second-post.html")
	assert.Contains(t, second, `<img src="http://www.example.com/images/second.jpg"`)
	assert.Contains(t, second, `<meta property="og:image" content="http://www.example.com/images/second.jpg">`)

	index := readOutput(t, s, "index.html")
	assert.Contains(t, index, "Hello, Wörld!")
	assert.Contains(t, index, "Second post")
	assert.Contains(t, index, `href="http://www.example.com/pages/about.html"`)
	assert.NotContains(t, index, "Secret")

	feed := readOutput(t, s, "feeds/all.atom.xml")
	assert.Contains(t, feed, "http://www.example.com/second-post.html")
}

func TestSiteBuildWithDrafts(t *testing.T) {
	s, ctx := buildTestSite(t, true)

	_, ok := ctx.ArticleBySlug("not-yet")
	assert.True(t, ok)
	assert.True(t, strings.Contains(readOutput(t, s, "not-yet.html"), "Draft body."))
}

func TestSiteBuildWithoutSiteURLSkipsFeeds(t *testing.T) {
	s, err := LoadSettings(filepath.Join("testdata", "site", "attila.yaml"))
	require.NoError(t, err)
	s.SiteURL = ""
	s.OutputPath = t.TempDir()

	_, err = NewSite(s, zaptest.NewLogger(t), false).Build()
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(s.OutputPath, "feeds", "all.atom.xml"))
	assert.True(t, os.IsNotExist(err))
}

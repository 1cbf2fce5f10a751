package sitetest_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thomas11/attila"
	"github.com/thomas11/attila/sitetest"
)

const (
	postCover = "post-cover cover"
	blogCover = "blog-cover cover"
)

func defaultSettings(t *testing.T) *attila.Settings {
	t.Helper()
	s, err := sitetest.LoadSettings(sitetest.DefaultConfPath)
	require.NoError(t, err)
	return s
}

func contentPath(parts ...string) string {
	return filepath.Join(append([]string{"testdata", "content"}, parts...)...)
}

// coverImage returns the img inside the cover block with the given class.
func coverImage(t *testing.T, doc *sitetest.Document, class string) *sitetest.Node {
	t.Helper()
	cover := doc.Find("div", class)
	require.NotNil(t, cover, "no div.%s rendered", class)
	img := cover.Find("img", "")
	require.NotNil(t, img, "cover block has no image")
	return img
}

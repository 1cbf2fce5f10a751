package attila

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// TaxonomyMeta holds the per-name overrides of AUTHOR_META, TAG_META and
// CATEGORY_META.
type TaxonomyMeta struct {
	Cover     string `mapstructure:"cover"`
	Image     string `mapstructure:"image"`
	Bio       string `mapstructure:"bio"`
	Location  string `mapstructure:"location"`
	Website   string `mapstructure:"website"`
	Twitter   string `mapstructure:"twitter"`
	Facebook  string `mapstructure:"facebook"`
	LinkedIn  string `mapstructure:"linkedin"`
	GitHub    string `mapstructure:"github"`
	GitLab    string `mapstructure:"gitlab"`
	Instagram string `mapstructure:"instagram"`
}

type Settings struct {
	SiteName string `mapstructure:"SITENAME"`
	SiteURL  string `mapstructure:"SITEURL"`
	Author   string `mapstructure:"AUTHOR"`

	Theme          string `mapstructure:"THEME"`
	ThemeStaticDir string `mapstructure:"THEME_STATIC_DIR"`

	Path            string   `mapstructure:"PATH"`
	OutputPath      string   `mapstructure:"OUTPUT_PATH"`
	PagePaths       []string `mapstructure:"PAGE_PATHS"`
	ArticleExcludes []string `mapstructure:"ARTICLE_EXCLUDES"`
	StaticPaths     []string `mapstructure:"STATIC_PATHS"`

	DefaultCategory    string `mapstructure:"DEFAULT_CATEGORY"`
	DefaultDateFormat  string `mapstructure:"DEFAULT_DATE_FORMAT"`
	FilenameDateFormat string `mapstructure:"FILENAME_DATE_FORMAT"`
	SummaryMaxLength   int    `mapstructure:"SUMMARY_MAX_LENGTH"`

	ArticleURL     string `mapstructure:"ARTICLE_URL"`
	ArticleSaveAs  string `mapstructure:"ARTICLE_SAVE_AS"`
	PageURL        string `mapstructure:"PAGE_URL"`
	PageSaveAs     string `mapstructure:"PAGE_SAVE_AS"`
	AuthorURL      string `mapstructure:"AUTHOR_URL"`
	AuthorSaveAs   string `mapstructure:"AUTHOR_SAVE_AS"`
	TagURL         string `mapstructure:"TAG_URL"`
	TagSaveAs      string `mapstructure:"TAG_SAVE_AS"`
	CategoryURL    string `mapstructure:"CATEGORY_URL"`
	CategorySaveAs string `mapstructure:"CATEGORY_SAVE_AS"`
	IndexSaveAs    string `mapstructure:"INDEX_SAVE_AS"`

	FeedAllAtom      string `mapstructure:"FEED_ALL_ATOM"`
	CategoryFeedAtom string `mapstructure:"CATEGORY_FEED_ATOM"`

	HeaderCover            string                  `mapstructure:"HEADER_COVER"`
	HeaderColor            string                  `mapstructure:"HEADER_COLOR"`
	AuthorMeta             map[string]TaxonomyMeta `mapstructure:"AUTHOR_META"`
	TagMeta                map[string]TaxonomyMeta `mapstructure:"TAG_META"`
	CategoryMeta           map[string]TaxonomyMeta `mapstructure:"CATEGORY_META"`
	ShowAuthorBioInArticle bool                    `mapstructure:"SHOW_AUTHOR_BIO_IN_ARTICLE"`

	// Source path (relative to PATH) to output URL. Seeds Context.Filenames.
	Filenames map[string]string `mapstructure:"filenames"`
}

func DefaultSettings() *Settings {
	return &Settings{
		SiteName:           "A Pelican-style Blog",
		Theme:              "theme",
		ThemeStaticDir:     "theme",
		Path:               "content",
		OutputPath:         "output",
		PagePaths:          []string{"pages"},
		StaticPaths:        []string{"images"},
		DefaultCategory:    "misc",
		DefaultDateFormat:  "Jan 2, 2006",
		FilenameDateFormat: "2006-01-02",
		SummaryMaxLength:   50,
		ArticleURL:         "{slug}.html",
		ArticleSaveAs:      "{slug}.html",
		PageURL:            "pages/{slug}.html",
		PageSaveAs:         "pages/{slug}.html",
		AuthorURL:          "author/{slug}.html",
		AuthorSaveAs:       "author/{slug}.html",
		TagURL:             "tag/{slug}.html",
		TagSaveAs:          "tag/{slug}.html",
		CategoryURL:        "category/{slug}.html",
		CategorySaveAs:     "category/{slug}.html",
		IndexSaveAs:        "index.html",
		FeedAllAtom:        "feeds/all.atom.xml",
		CategoryFeedAtom:   "feeds/{slug}.atom.xml",
		AuthorMeta:         map[string]TaxonomyMeta{},
		TagMeta:            map[string]TaxonomyMeta{},
		CategoryMeta:       map[string]TaxonomyMeta{},
		Filenames:          map[string]string{},
	}
}

// LoadSettings reads a YAML, TOML or JSON settings file over the defaults.
// Relative PATH, OUTPUT_PATH and THEME are resolved against the directory of
// the settings file, because the executable can be called from anywhere.
func LoadSettings(fileName string) (*Settings, error) {
	raw, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "read settings")
	}

	values := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &values)
	case ".toml":
		var tree *toml.Tree
		tree, err = toml.LoadBytes(raw)
		if err == nil {
			values = tree.ToMap()
		}
	case ".json":
		err = json.Unmarshal(raw, &values)
	default:
		return nil, errors.Errorf("unsupported settings format %q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse settings %v", fileName)
	}

	conf := DefaultSettings()
	if err := conf.Update(values); err != nil {
		return nil, errors.Wrapf(err, "decode settings %v", fileName)
	}

	baseDir := filepath.Dir(fileName)
	conf.Path = normalizePath(conf.Path, baseDir)
	conf.OutputPath = normalizePath(conf.OutputPath, baseDir)
	conf.Theme = normalizePath(conf.Theme, baseDir)

	return conf, nil
}

// Update applies overrides by settings key. Nested meta maps are merged per
// entry; every other key is replaced.
func (s *Settings) Update(overrides map[string]any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           s,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(overrides)
}

// Clone returns a deep copy; mutating the clone never touches s.
func (s *Settings) Clone() *Settings {
	c := *s
	c.PagePaths = append([]string(nil), s.PagePaths...)
	c.ArticleExcludes = append([]string(nil), s.ArticleExcludes...)
	c.StaticPaths = append([]string(nil), s.StaticPaths...)
	c.AuthorMeta = cloneMeta(s.AuthorMeta)
	c.TagMeta = cloneMeta(s.TagMeta)
	c.CategoryMeta = cloneMeta(s.CategoryMeta)
	c.Filenames = make(map[string]string, len(s.Filenames))
	for k, v := range s.Filenames {
		c.Filenames[k] = v
	}
	return &c
}

func cloneMeta(m map[string]TaxonomyMeta) map[string]TaxonomyMeta {
	c := make(map[string]TaxonomyMeta, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func normalizePath(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

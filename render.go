package attila

import (
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

type templateEngine struct {
	templateDir   string
	funcs         template.FuncMap
	templateCache map[string]*template.Template
}

func newTemplateEngine(dir string) *templateEngine {
	return &templateEngine{
		templateDir: dir,
		funcs: template.FuncMap{
			"coverURL": coverURL,
			"absURL":   resolveURL,
			"dict":     dict,
			"cssColor": cssColor,
		},
		templateCache: make(map[string]*template.Template),
	}
}

// getTemplate parses base.html, the partials and name.html together. Executing
// the result runs base.html, which pulls in the blocks name.html defines.
func (te *templateEngine) getTemplate(name string) (*template.Template, error) {
	if t, ok := te.templateCache[name]; ok {
		return t, nil
	}

	page := filepath.Join(te.templateDir, name+".html")
	if _, err := os.Stat(page); err != nil {
		return nil, errors.Wrapf(err, "template %q", name)
	}
	partials, err := filepath.Glob(filepath.Join(te.templateDir, "partials", "*.html"))
	if err != nil {
		return nil, err
	}
	files := append([]string{filepath.Join(te.templateDir, "base.html")}, partials...)
	files = append(files, page)

	t, err := template.New("base.html").Funcs(te.funcs).ParseFiles(files...)
	if err != nil {
		return nil, errors.Wrapf(err, "parse template %q", name)
	}
	te.templateCache[name] = t
	return t, nil
}

// coverURL picks the first non-empty candidate, so callers list them by
// precedence, and resolves it against siteURL. It returns "" when every
// candidate is empty.
func coverURL(siteURL string, candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return resolveURL(siteURL, c)
		}
	}
	return ""
}

// resolveURL keeps absolute and protocol-relative references as they are and
// joins everything else to siteURL with exactly one slash.
func resolveURL(siteURL, ref string) string {
	if isAbsoluteURL(ref) {
		return ref
	}
	return strings.TrimSuffix(siteURL, "/") + "/" + strings.TrimPrefix(ref, "/")
}

// dict builds a map from key/value pairs so partials can take more than one
// argument.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict needs an even number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, errors.Errorf("dict key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

var colorValue = regexp.MustCompile(`^(?i:#[0-9a-f]{3,8}|[a-z]+|(?:rgb|rgba|hsl|hsla)\(\s*[-+0-9a-z.,%/\s]+\))$`)

// cssColor marks a colour value as safe CSS. Anything that does not look
// like a named, hex, rgb() or hsl() colour goes through html/template's
// own filtering.
func cssColor(color string) any {
	color = strings.TrimSpace(color)
	if colorValue.MatchString(color) {
		return template.CSS(color)
	}
	return color
}

func isAbsoluteURL(ref string) bool {
	if strings.HasPrefix(ref, "//") {
		return true
	}
	u, err := url.Parse(ref)
	return err == nil && u.Scheme != ""
}

package attila

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoReader    = errors.New("no reader for file extension")
	ErrInvalidDate = errors.New("invalid date")
)

// Metadata is what a Reader extracts from a source file besides its body.
type Metadata struct {
	Title    string
	Date     time.Time
	Modified time.Time
	Slug     string
	Category string
	Tags     []string
	Authors  []string
	Cover    string
	OGImage  string
	Summary  string
	Status   string
	SaveAs   string
	URL      string
	Template string
}

// A Reader parses one source file into rendered HTML content and metadata.
type Reader interface {
	Read(path string) (content string, meta Metadata, err error)
}

// Readers dispatches to a Reader by file extension.
type Readers map[string]Reader

func NewReaders(settings *Settings, logger *zap.Logger) Readers {
	text := &TextReader{settings: settings, logger: logger, toHtml: newBlackfridayRenderer()}
	md := &MarkdownReader{settings: settings, logger: logger, toHtml: newGoldmarkRenderer()}
	return Readers{
		".text":     text,
		".txt":      text,
		".md":       md,
		".markdown": md,
	}
}

func (rs Readers) Supports(path string) bool {
	_, ok := rs[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (rs Readers) Read(path string) (string, Metadata, error) {
	r, ok := rs[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", Metadata{}, errors.Wrap(ErrNoReader, path)
	}
	return r.Read(path)
}

// TextReader reads files made of "key: value" header lines, an empty line
// and a Markdown body.
type TextReader struct {
	settings *Settings
	logger   *zap.Logger
	toHtml   renderer
}

func (r *TextReader) Read(path string) (string, Metadata, error) {
	fileContent, err := os.ReadFile(path)
	if err != nil {
		return "", Metadata{}, err
	}

	firstEmptyLine, sepLen := bytes.Index(fileContent, []byte("\n\n")), 2
	if firstEmptyLine == -1 {
		firstEmptyLine, sepLen = bytes.Index(fileContent, []byte("\r\n\r\n")), 4
		if firstEmptyLine == -1 {
			return "", Metadata{}, fmt.Errorf("weird post %v: no empty line", path)
		}
	}

	var meta Metadata
	headerLines := bytes.Split(fileContent[:firstEmptyLine], []byte("\n"))
	for _, l := range headerLines {
		l = bytes.TrimRight(l, "\r")
		colon := bytes.Index(l, []byte(":"))
		if colon == -1 {
			return "", Metadata{}, fmt.Errorf("invalid header line in %v: %s", path, l)
		}
		key, val := string(bytes.TrimSpace(l[:colon])), string(bytes.TrimSpace(l[colon+1:]))
		if err := setMeta(&meta, key, val, r.logger); err != nil {
			return "", Metadata{}, errors.Wrap(err, path)
		}
	}

	body, err := stripHighlightDirectives(fileContent[firstEmptyLine+sepLen:])
	if err != nil {
		return "", Metadata{}, err
	}
	content, err := r.toHtml.render(body)
	if err != nil {
		return "", Metadata{}, err
	}

	if err := fillDates(&meta, path, r.settings.FilenameDateFormat); err != nil {
		return "", Metadata{}, err
	}
	return content, meta, nil
}

// MarkdownReader reads Markdown files with YAML frontmatter.
type MarkdownReader struct {
	settings *Settings
	logger   *zap.Logger
	toHtml   renderer
}

func (r *MarkdownReader) Read(path string) (string, Metadata, error) {
	fileContent, err := os.ReadFile(path)
	if err != nil {
		return "", Metadata{}, err
	}

	frontmatter, body, err := splitFrontmatter(fileContent)
	if err != nil {
		return "", Metadata{}, errors.Wrap(err, path)
	}

	fields := map[string]any{}
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return "", Metadata{}, errors.Wrapf(err, "frontmatter of %v", path)
	}

	var meta Metadata
	for key, v := range fields {
		if err := setMeta(&meta, key, metaString(v), r.logger); err != nil {
			return "", Metadata{}, errors.Wrap(err, path)
		}
	}

	content, err := r.toHtml.render(body)
	if err != nil {
		return "", Metadata{}, err
	}

	if err := fillDates(&meta, path, r.settings.FilenameDateFormat); err != nil {
		return "", Metadata{}, err
	}
	return content, meta, nil
}

var errMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

// splitFrontmatter separates "---" delimited frontmatter from the body. A
// document without an opening delimiter is all body.
func splitFrontmatter(content []byte) (frontmatter, body []byte, err error) {
	nl := "\n"
	if bytes.HasPrefix(content, []byte("---\r\n")) {
		nl = "\r\n"
	}
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return nil, rest[len(open):], nil
	}
	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		return nil, nil, errMissingClosingDelimiter
	}
	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], nil
}

func metaString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ", ")
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func setMeta(meta *Metadata, key, val string, logger *zap.Logger) error {
	var err error
	switch strings.ToLower(key) {
	case "title":
		meta.Title = val
	case "date":
		meta.Date, err = parseDate(val)
	case "modified":
		meta.Modified, err = parseDate(val)
	case "slug":
		meta.Slug = val
	case "category":
		meta.Category = val
	case "categories":
		// Only the first category counts; an article lives in one category.
		if cs := splitList(val); len(cs) > 0 {
			meta.Category = cs[0]
		}
	case "tags":
		meta.Tags = splitList(val)
	case "author", "authors":
		meta.Authors = splitList(val)
	case "cover":
		meta.Cover = val
	case "og_image":
		meta.OGImage = val
	case "summary", "blurb":
		meta.Summary = val
	case "status":
		meta.Status = strings.ToLower(val)
	case "save_as":
		meta.SaveAs = val
	case "url":
		meta.URL = val
	case "template":
		meta.Template = val
	default:
		logger.Debug("Skipping unknown header field", zap.String("key", key))
	}
	return err
}

func splitList(val string) []string {
	var out []string
	for _, v := range strings.Split(val, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func parseDate(val string) (time.Time, error) {
	for _, f := range dateFormats {
		if d, err := time.Parse(f, val); err == nil {
			return d, nil
		}
	}
	return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q", val)
}

func extractDateFromFilename(filename string, dateStampFormat string) (*time.Time, error) {
	if len(filename) < len(dateStampFormat)+1 {
		return nil, fmt.Errorf("skipping %v, name too short", filename)
	}

	dateStr := filename[:len(dateStampFormat)]
	date, err := time.Parse(dateStampFormat, dateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid date stamp in %v", dateStampFormat)
	}
	return &date, nil
}

// fillDates falls back to a date stamp at the start of the file name, then to
// the file's modification time.
func fillDates(meta *Metadata, path, dateStampFormat string) error {
	if meta.Date.IsZero() && dateStampFormat != "" {
		if d, err := extractDateFromFilename(filepath.Base(path), dateStampFormat); err == nil {
			meta.Date = *d
		}
	}
	if meta.Date.IsZero() {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		meta.Date = info.ModTime()
	}
	if meta.Modified.IsZero() {
		meta.Modified = meta.Date
	}
	return nil
}

// For now, just strip the highlighting directives.
func stripHighlightDirectives(text []byte) ([]byte, error) {
	newText := bytes.NewBuffer(make([]byte, 0, len(text)))
	r := bufio.NewReader(bytes.NewReader(text))

	for {
		line, err := r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if !bytes.HasPrefix(bytes.TrimSpace(line), []byte("!highlight")) {
			newText.Write(line)
		}
		if err == io.EOF {
			break
		}
	}

	return newText.Bytes(), nil
}

func findContentFiles(dir string, include func(path string) bool) ([]string, error) {
	files := make([]string, 0, 100)

	walkFunc := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != dir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if include(path) {
			files = append(files, path)
		}
		return nil
	}

	err := filepath.Walk(dir, walkFunc)
	return files, err
}

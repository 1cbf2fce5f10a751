package sitetest

import (
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

// Node is an element (or the document root) of parsed HTML. Methods on a nil
// *Node return zero values, so lookups chain.
type Node struct {
	n *html.Node
}

type Document struct {
	*Node
}

func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse HTML")
	}
	return &Document{&Node{root}}, nil
}

// Find returns the first element below n, in document order, with the given
// tag and class. An empty tag or class matches anything. class matches either
// the whole class attribute or any single class in it.
func (n *Node) Find(tag, class string) *Node {
	if n == nil {
		return nil
	}
	var found *Node
	walk(n.n, func(e *html.Node) bool {
		if matches(e, tag, class) {
			found = &Node{e}
			return false
		}
		return true
	})
	return found
}

// FindAll is Find returning every match.
func (n *Node) FindAll(tag, class string) []*Node {
	if n == nil {
		return nil
	}
	var found []*Node
	walk(n.n, func(e *html.Node) bool {
		if matches(e, tag, class) {
			found = append(found, &Node{e})
		}
		return true
	})
	return found
}

func (n *Node) Attr(key string) string {
	v, _ := n.LookupAttr(key)
	return v
}

func (n *Node) LookupAttr(key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Text is the concatenated text below n with surrounding space trimmed.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			collect(ch)
		}
	}
	collect(n.n)
	return strings.TrimSpace(b.String())
}

// HTML renders n and everything below it.
func (n *Node) HTML() string {
	if n == nil {
		return ""
	}
	var b bytes.Buffer
	if err := html.Render(&b, n.n); err != nil {
		return ""
	}
	return b.String()
}

// walk visits the elements below root depth first until visit returns false.
func walk(root *html.Node, visit func(*html.Node) bool) bool {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !visit(c) {
			return false
		}
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func matches(e *html.Node, tag, class string) bool {
	if tag != "" && e.Data != tag {
		return false
	}
	if class == "" {
		return true
	}
	for _, a := range e.Attr {
		if a.Key != "class" {
			continue
		}
		if strings.TrimSpace(a.Val) == class {
			return true
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

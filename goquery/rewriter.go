// Package goquery rewrites URL attributes in HTML documents using goquery.
package goquery

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sitemirror"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var _ sitemirror.ContentRewriter = (*Rewriter)(nil)

// AttributeConfig names an element attribute that holds a rewritable URL.
type AttributeConfig struct {
	Selector  string
	Attribute string
}

// DefaultAttributes are the element attributes rewritten by NewRewriter.
var DefaultAttributes = []AttributeConfig{
	{Selector: "form[action]", Attribute: "action"},
	{Selector: "script[src]", Attribute: "src"},
	{Selector: "link[href]", Attribute: "href"},
	{Selector: "img[src]", Attribute: "src"},
	{Selector: "a[href]", Attribute: "href"},
}

// Rewriter rewrites relative URLs in HTML attributes through a URLRewriter
// and reports the original relative URLs as discovered.
type Rewriter struct {
	rewriteURL sitemirror.URLRewriter
	attributes []AttributeConfig
}

// NewRewriter creates a Rewriter for DefaultAttributes.
func NewRewriter(rewriteURL sitemirror.URLRewriter) *Rewriter {
	return &Rewriter{
		rewriteURL: rewriteURL,
		attributes: DefaultAttributes,
	}
}

// Rewrite parses content tolerantly, rewrites every relative URL attribute
// and renders the document back. Absolute values are left untouched and are
// not reported. Void elements are rendered self-closing.
func (r *Rewriter) Rewrite(content string, sourceURL *url.URL) (*sitemirror.RewrittenContent, error) {
	if err := sitemirror.ValidateSourceURL(sourceURL); err != nil {
		return nil, err
	}

	root, err := parse(content)
	if err != nil {
		return nil, sitemirror.Errorf(sitemirror.EINVALID, "failed to parse HTML: %v", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	seen := make(map[string]bool)
	var discovered []string
	for _, cfg := range r.attributes {
		doc.Find(cfg.Selector).Each(func(_ int, sel *goquery.Selection) {
			value, exists := sel.Attr(cfg.Attribute)
			if !exists {
				return
			}
			value = strings.TrimSpace(value)
			if !isRewritable(value) {
				return
			}

			if dest, ok := r.rewriteURL(value); ok {
				sel.SetAttr(cfg.Attribute, linkTarget(dest))
			}

			if !seen[value] {
				seen[value] = true
				discovered = append(discovered, value)
			}
		})
	}

	var buf bytes.Buffer
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if err := html.Render(&buf, n); err != nil {
			return nil, err
		}
	}

	return sitemirror.NewRewrittenContent(buf.String(), discovered)
}

// isRewritable reports whether an attribute value is a relative reference to
// another resource. Empty and fragment-only values point at the page itself.
func isRewritable(value string) bool {
	if value == "" || strings.HasPrefix(value, "#") {
		return false
	}
	return !sitemirror.IsAbsoluteURL(value)
}

// linkTarget returns the attribute value for a rewritten destination.
// A destination naming "index.html" becomes "/" plus any query or fragment,
// since the index page is served for the directory itself.
func linkTarget(dest string) string {
	path, suffix := dest, ""
	if idx := strings.IndexAny(dest, "?#"); idx != -1 {
		path, suffix = dest[:idx], dest[idx:]
	}
	if strings.Trim(path, "/\\") == "index.html" {
		return "/" + suffix
	}
	return dest
}

// parse returns a document node whose children are the parsed content.
// Complete documents are parsed as such; anything else is parsed as a body
// fragment so no html/head/body wrappers are added on output.
func parse(content string) (*html.Node, error) {
	if isDocument(content) {
		return html.Parse(strings.NewReader(content))
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, err
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

func isDocument(content string) bool {
	lower := strings.ToLower(content)
	for _, marker := range []string{"<!doctype", "<html", "<head", "<body"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

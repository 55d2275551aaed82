package sitemirror

import (
	"net/url"
	"strings"
)

// URLRewriter maps a logical URL, as referenced from site content, to its
// destination URL. The destination is either absolute, meaning the URL is
// external and must not be mirrored, or a clean relative path to write.
// The bool result is false when the URL has no destination at all.
//
// Implementations must be pure: the same input always yields the same output.
type URLRewriter func(logicalURL string) (destination string, ok bool)

// Override is an exact-match mapping consulted before any generic rewrite rule.
type Override struct {
	From string
	To   string
}

// LookupOverride returns the destination of the first override whose From
// equals logicalURL.
func LookupOverride(overrides []Override, logicalURL string) (string, bool) {
	for _, o := range overrides {
		if o.From == logicalURL {
			return o.To, true
		}
	}
	return "", false
}

// IsAbsoluteURL reports whether rawURL carries a scheme or is protocol-relative.
func IsAbsoluteURL(rawURL string) bool {
	if strings.HasPrefix(rawURL, "//") {
		return true
	}
	return hasScheme(rawURL)
}

// hasScheme reports whether rawURL starts with a valid "scheme:" prefix.
func hasScheme(rawURL string) bool {
	for i := 0; i < len(rawURL); i++ {
		c := rawURL[i]
		switch {
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' || c == '+' || c == '-' || c == '.':
			if i == 0 {
				return false
			}
		case c == ':':
			return i > 0
		default:
			return false
		}
	}
	return false
}

// SplitURL separates rawURL into its path, query and fragment parts.
// The separators themselves are not included in the returned parts.
func SplitURL(rawURL string) (path, query, fragment string) {
	path, fragment, _ = strings.Cut(rawURL, "#")
	path, query, _ = strings.Cut(path, "?")
	return path, query, fragment
}

// StripFragment removes any "#fragment" suffix from rawURL.
// URLs differing only by fragment identify the same resource.
func StripFragment(rawURL string) string {
	if idx := strings.Index(rawURL, "#"); idx != -1 {
		return rawURL[:idx]
	}
	return rawURL
}

// HasQuery reports whether rawURL still carries a query string.
func HasQuery(rawURL string) bool {
	return strings.Contains(StripFragment(rawURL), "?")
}

// ResolveFetchURL resolves a logical URL against the site root.
// Relative logical URLs always resolve against root, never against the page
// they were found on.
func ResolveFetchURL(root *url.URL, logicalURL string) (*url.URL, error) {
	if root == nil || !root.IsAbs() {
		return nil, Errorf(EINVALID, "root must be an absolute url")
	}
	ref, err := url.Parse(logicalURL)
	if err != nil {
		return nil, Errorf(EINVALID, "invalid url %q: %v", logicalURL, err)
	}
	resolved := root.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved, nil
}

// KnownExtensions lists file extensions recognized as real file types in any
// letter case. It covers every extension a URL policy keeps as-is.
var KnownExtensions = []string{
	"html", "htm", "xhtml",
	"jpg", "jpeg", "png", "gif", "svg", "ico", "webp", "avif", "bmp",
	"md", "markdown",
	"js", "mjs", "json", "geojson", "xml",
	"css",
	"txt", "text", "csv", "tsv", "pdf", "zip",
	"eot", "ttf", "otf", "woff", "woff2",
	"mp3", "mp4", "webm", "ogg",
}

// IsKnownExtension reports whether ext, with or without its leading dot, is
// one of KnownExtensions, ignoring case.
func IsKnownExtension(ext string) bool {
	ext = strings.TrimPrefix(ext, ".")
	for _, known := range KnownExtensions {
		if strings.EqualFold(ext, known) {
			return true
		}
	}
	return false
}

// DestinationFile converts a relative destination URL into the file path to
// write under the destination root. Query and fragment are dropped, an empty
// path becomes "index.html", and ".html" is appended when the last segment
// has no extension, or has an unknown extension containing upper-case letters
// (so a name such as "ASP.Net" becomes "ASP.Net.html" while "Logo.PNG" stays).
func DestinationFile(destination string) string {
	path, _, _ := SplitURL(destination)
	path = strings.Trim(strings.ReplaceAll(path, "\\", "/"), "/")
	if path == "" {
		return "index.html"
	}

	last := path[strings.LastIndex(path, "/")+1:]
	dot := strings.LastIndex(last, ".")
	if dot == -1 {
		return path + ".html"
	}
	ext := last[dot:]
	if strings.ToLower(ext) != ext && !IsKnownExtension(ext) {
		path += ".html"
	}
	return path
}

// ContentKind classifies how fetched content is processed.
type ContentKind int

// Content kinds, selected by destination file extension.
const (
	KindBinary ContentKind = iota
	KindHTML
	KindCSS
)

// String returns the kind's name.
func (k ContentKind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindCSS:
		return "css"
	default:
		return "binary"
	}
}

// KindForDestination selects the content kind for a destination file.
// Anything that is neither ".html" nor ".css", including scripts, is copied
// verbatim and never parsed for links.
func KindForDestination(file string) ContentKind {
	lower := strings.ToLower(file)
	switch {
	case strings.HasSuffix(lower, ".html"):
		return KindHTML
	case strings.HasSuffix(lower, ".css"):
		return KindCSS
	default:
		return KindBinary
	}
}

package dereference

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/typeindex/internal/rdf"
)

// HTMLPage is the RDF found in an HTML document
type HTMLPage struct {
	JSONLD    []string // Bodies of <script type="application/ld+json"> blocks
	Alternate string   // First <link rel="alternate"> pointing at a parseable RDF type
}

// rdfAlternateTypes are the link types Parse can read, in preference order
var rdfAlternateTypes = []string{"application/n-quads", "application/n-triples", "application/ld+json"}

// ParseHTML collects embedded JSON-LD and RDF alternate links from an HTML page
func ParseHTML(body []byte, pageURL string) (*HTMLPage, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	page := &HTMLPage{}
	alternates := make(map[string]string)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script":
				if rdf.MediaType(attr(n, "type")) == "application/ld+json" && n.FirstChild != nil {
					if text := strings.TrimSpace(n.FirstChild.Data); text != "" {
						page.JSONLD = append(page.JSONLD, text)
					}
				}
			case "link":
				if hasToken(attr(n, "rel"), "alternate") {
					mt := rdf.MediaType(attr(n, "type"))
					if _, seen := alternates[mt]; !seen {
						if resolved := resolveURL(baseURL, attr(n, "href")); resolved != "" {
							alternates[mt] = resolved
						}
					}
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, mt := range rdfAlternateTypes {
		if href, ok := alternates[mt]; ok {
			page.Alternate = href
			break
		}
	}
	return page, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(strings.ToLower(list)) {
		if f == token {
			return true
		}
	}
	return false
}

// resolveURL resolves href against base, keeping only http(s) targets
func resolveURL(base *url.URL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

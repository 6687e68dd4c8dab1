package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// boilerplateTags are subtrees excluded from visible-text extraction because
// they add navigation and styling noise rather than content.
var boilerplateTags = map[string]struct{}{
	"script": {},
	"style":  {},
	"nav":    {},
	"header": {},
	"footer": {},
}

// parsePage walks the HTML tree once, returning the first <title> text
// ("Untitled" when absent), the whitespace-collapsed visible body text, and
// the cleaned same-host links found in <a href> attributes.
func parsePage(r io.Reader, base *url.URL) (title, text string, links []string, err error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", "", nil, err
	}

	var words []string
	var skipDepth int

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := boilerplateTags[strings.ToLower(n.Data)]; skip {
				skipDepth++
				defer func() { skipDepth-- }()
			}
			switch strings.ToLower(n.Data) {
			case "title":
				if title == "" {
					title = strings.TrimSpace(nodeText(n))
				}
			case "a":
				for _, attr := range n.Attr {
					if strings.EqualFold(attr.Key, "href") {
						if link := cleanLink(base, attr.Val); link != "" {
							links = append(links, link)
						}
					}
				}
			}
		}
		if skipDepth == 0 && n.Type == html.TextNode {
			words = append(words, strings.Fields(n.Data)...)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	if title == "" {
		title = "Untitled"
	}
	return title, strings.Join(words, " "), links, nil
}

func nodeText(n *html.Node) string {
	var parts []string
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			parts = append(parts, child.Data)
		}
	}
	return strings.Join(parts, " ")
}

// cleanLink resolves href against base and normalises it for the crawl
// queue: anchors, mailto: and javascript: links are dropped, query strings
// and fragments are stripped to reduce duplicates, and only links on the
// base URL's host survive.
func cleanLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "data:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.RawQuery = ""
	resolved.Fragment = ""

	if resolved.Host != base.Host {
		return ""
	}
	return resolved.String()
}

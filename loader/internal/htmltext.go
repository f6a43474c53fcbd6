package internal

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// CleanHTML extracts the readable text of an HTML document, dropping
// script, style and noscript subtrees and collapsing whitespace.
func CleanHTML(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return Normalize(sb.String()), nil
}

// ExtractLinks returns the absolute http(s) URLs of all anchors in the
// document, resolved against base and with fragments stripped.
func ExtractLinks(base *url.URL, r io.Reader) []string {
	doc, err := html.Parse(r)
	if err != nil {
		return nil
	}

	var links []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				ref, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil {
					continue
				}
				u := base.ResolveReference(ref)
				u.Fragment = ""
				if u.Scheme == "http" || u.Scheme == "https" {
					links = append(links, u.String())
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

package ingest

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractHTMLText returns the visible text of an HTML document, with script
// and style contents removed. Parse errors fall back to the raw input so a
// malformed page still contributes its text.
func ExtractHTMLText(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
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
	return sb.String()
}

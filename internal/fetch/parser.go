package fetch

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/surfacescore/surfacescore/internal/model"
)

// ParsePage extracts page metadata from an HTML document.
// The tree is walked once; unknown or malformed markup is tolerated the
// way browsers tolerate it.
func ParsePage(r io.Reader) (*model.PageInfo, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	info := &model.PageInfo{Headings: make(map[int]int)}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			inspect(n, info)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(info.Headings) == 0 {
		info.Headings = nil
	}
	return info, nil
}

func inspect(n *html.Node, info *model.PageInfo) {
	switch n.Data {
	case "html":
		info.Lang = getAttr(n, "lang")

	case "title":
		if info.Title == "" {
			info.Title = strings.TrimSpace(textContent(n))
		}

	case "meta":
		if strings.EqualFold(getAttr(n, "name"), "description") && info.Description == "" {
			info.Description = strings.TrimSpace(getAttr(n, "content"))
		}

	case "h1", "h2", "h3", "h4", "h5", "h6":
		info.Headings[int(n.Data[1]-'0')]++

	case "img":
		info.Images++
		if _, ok := lookupAttr(n, "alt"); ok {
			info.ImagesWithAlt++
		}

	case "script":
		if strings.EqualFold(getAttr(n, "type"), "application/ld+json") {
			info.JSONLDBlocks++
		}

	case "article":
		info.HasArticle = true

	case "main":
		info.HasMainLandmark = true
	}

	if strings.EqualFold(getAttr(n, "role"), "main") {
		info.HasMainLandmark = true
	}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func getAttr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

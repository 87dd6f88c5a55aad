package parser

import (
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/foxsearch/internal/shared/types"
)

const (
	liteAnchorXPath = `//a[contains(concat(' ', normalize-space(@class), ' '), ' result-link ')]`
	// the snippet lives in a later table row than its anchor
	liteSnippetXPath = `ancestor::tr[1]/following-sibling::tr//td[contains(concat(' ', normalize-space(@class), ' '), ' result-snippet ')]`
)

// LiteParser implements the ddg-lite/v1 contract
type LiteParser struct {
	resolver *resolver
}

// Contract returns the contract name
func (p *LiteParser) Contract() string { return ContractLite }

// Parse extracts up to maxCount records
func (p *LiteParser) Parse(doc string, maxCount int) []types.Record {
	c := newCollector(maxCount)

	root, err := loadNode(doc)
	if err != nil {
		return c.records
	}
	anchors, err := htmlquery.QueryAll(root, liteAnchorXPath)
	if err != nil {
		return c.records
	}

	for i, anchor := range anchors {
		link, ok := p.resolver.resolve(htmlquery.SelectAttr(anchor, "href"))
		if !ok {
			continue
		}
		c.add(link, htmlquery.InnerText(anchor), p.snippet(anchor, anchors, i))
		if c.full() {
			break
		}
	}
	return c.records
}

// snippet finds the first snippet cell after anchor but before the next anchor's row
func (p *LiteParser) snippet(anchor *html.Node, anchors []*html.Node, i int) string {
	cell, err := htmlquery.Query(anchor, liteSnippetXPath)
	if err != nil || cell == nil {
		return ""
	}
	if i+1 < len(anchors) && precedes(anchors[i+1], cell) {
		return ""
	}
	return htmlquery.InnerText(cell)
}

// precedes reports whether a comes before b in document order
func precedes(a, b *html.Node) bool {
	found := false
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n == a {
			found = true
			return true
		}
		if n == b {
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	root := a
	for root.Parent != nil {
		root = root.Parent
	}
	walk(root)
	return found
}

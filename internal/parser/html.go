package parser

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/GriffinCanCode/foxsearch/internal/shared/types"
)

const (
	htmlResultSelector  = ".result, .web-result"
	htmlAnchorSelector  = "a.result__a"
	htmlSnippetSelector = ".result__snippet"
)

// HTMLParser implements the ddg-html/v1 contract
type HTMLParser struct {
	resolver *resolver
}

// Contract returns the contract name
func (p *HTMLParser) Contract() string { return ContractHTML }

// Parse extracts up to maxCount records
func (p *HTMLParser) Parse(html string, maxCount int) []types.Record {
	c := newCollector(maxCount)

	doc, err := loadDocument(html)
	if err != nil {
		return c.records
	}

	doc.Find(htmlResultSelector).EachWithBreak(func(_ int, result *goquery.Selection) bool {
		anchor := result.Find(htmlAnchorSelector).First()
		if anchor.Length() == 0 {
			return true
		}
		href, _ := anchor.Attr("href")
		link, ok := p.resolver.resolve(href)
		if !ok {
			return true
		}

		snippet := result.Find(htmlSnippetSelector).First().Text()
		c.add(link, anchor.Text(), snippet)
		return !c.full()
	})

	return c.records
}

package framerelay

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

var rewrittenAttrs = []string{"src", "href"}

// RewriteRootRelative decodes doc to UTF-8 and points every src/href that
// starts with a single slash at origin.
func RewriteRootRelative(doc []byte, contentType, origin string) ([]byte, error) {
	var r io.Reader = bytes.NewReader(doc)
	if !utf8.Valid(doc) {
		decoded, err := charset.NewReader(r, contentType)
		if err != nil {
			return nil, err
		}
		r = decoded
	}
	page, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	page.Find("[src], [href]").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range rewrittenAttrs {
			v, ok := s.Attr(attr)
			if ok && strings.HasPrefix(v, "/") && !strings.HasPrefix(v, "//") {
				s.SetAttr(attr, origin+v)
			}
		}
	})

	out, err := page.Html()
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

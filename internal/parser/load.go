package parser

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// MaxHTMLSize bounds the input parsed; anything beyond is ignored
const MaxHTMLSize = 10 * 1024 * 1024

// DetectCharset guesses the encoding of raw page bytes
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// utf8Reader returns a reader over the document decoded to UTF-8.
// Valid UTF-8 input is passed through untouched.
func utf8Reader(doc string) *bytes.Reader {
	if len(doc) > MaxHTMLSize {
		doc = doc[:MaxHTMLSize]
	}
	data := []byte(doc)
	if utf8.Valid(data) {
		return bytes.NewReader(data)
	}

	r, err := charset.NewReader(bytes.NewReader(data), "text/html; charset="+DetectCharset(data))
	if err != nil {
		return bytes.NewReader(data)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return bytes.NewReader(data)
	}
	return bytes.NewReader(buf.Bytes())
}

func loadDocument(doc string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(utf8Reader(doc))
}

func loadNode(doc string) (*html.Node, error) {
	return htmlquery.Parse(utf8Reader(doc))
}

/*
Package parser turns search-engine result pages into records.

Each scraping convention is a named, versioned contract behind the Parser
interface. Pagination only ever sees the interface, so a layout change on the
engine side is absorbed by adding a contract here.

Contracts:
  - ddg-html/v1: the DuckDuckGo HTML endpoint, CSS selectors via goquery
  - ddg-lite/v1: the DuckDuckGo lite endpoint, XPath via htmlquery

Parsing never fails. Malformed markup yields whatever records can be
salvaged, possibly none.
*/
package parser

// Package types provides the data structures shared by the portal backend.
//
// Core Types:
//   - Record: One scraped search result (immutable, keyed by Link)
//   - Page: A batch of records appended to a search session
//   - PinnedTab: A saved frame URL (keyed by URL)
//
// Example Usage:
//
//	rec := types.Record{
//	    Title:       "Example Domain",
//	    Link:        "https://example.com/",
//	    DisplayHost: "example.com",
//	}
package types

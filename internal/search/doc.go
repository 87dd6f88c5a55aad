// Package search drives paginated result retrieval for one query session.
//
// The Engine owns a single session: the active query, the page cursor, the
// set of links already shown and the append-only page history. At most one
// fetch is in flight at a time; triggers that arrive while fetching are
// dropped. Responses that come back after the session moved on are
// discarded instead of applied.
package search

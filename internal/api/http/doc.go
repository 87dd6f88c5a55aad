// Package http exposes the portal over a JSON API: search pagination,
// suggestions, the embedded frame, pinned tabs and preferences.
package http

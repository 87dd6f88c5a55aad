// Package tabs keeps the pinned-tab list and the embedded frame state.
//
// Pinned tabs live for the process lifetime. There is no eviction and no
// removal; restoring a tab only hands its URL back to the frame.
package tabs

// Package ws streams render events to portal front ends over WebSocket.
//
// The Hub is the engine's render collaborator: every results or no-results
// event is encoded once and fanned out to all subscribers. A subscriber that
// cannot keep up loses events instead of stalling the engine.
package ws

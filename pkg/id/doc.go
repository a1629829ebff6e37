// Package id provides a 128-bit, lexicographically sortable identifier used
// to stamp inbound requests for log correlation.
//
// The ID is 16 bytes big-endian: [8 bytes ms_timestamp][8 bytes sequence],
// so byte-wise comparison preserves chronological order and IDs generated
// within the same millisecond remain strictly increasing by sequence.
//
// The Generator is safe for concurrent use and per-process monotonic: if the
// system clock regresses it pins to the last seen millisecond and keeps
// incrementing the sequence.
//
// Usage:
//
//	g := id.NewGenerator()
//	requestID := g.Next().String()
package id

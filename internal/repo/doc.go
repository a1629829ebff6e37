// Package repo is the narrow persistence layer for clients, surveys, and
// votes, backed by Pebble.
//
// # Keyspace
//
// Documents are JSON values under lexicographically sortable keys:
//   - cl/{clientID}            (client document)
//   - sv/{surveyID}            (survey document)
//   - vt/{surveyID}/{clientID} (vote document)
//
// A vote key embeds the (surveyID, clientID) pair, so at-most-one-vote per
// client per survey is structural: RecordVoteIfAbsent checks and inserts
// under the repository's vote lock, and the voters of a survey are a single
// prefix scan.
//
// The repository holds no domain logic. Close decisions, quorum counting
// policy, and notification all live above it.
package repo

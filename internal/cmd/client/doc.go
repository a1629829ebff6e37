// Package client contains Cobra CLI commands for canvass.
//
// Commands talk to a running server over its HTTP API. The caller's
// identity comes from --user/--key-file flags or the CANVASS_USER_ID and
// CANVASS_KEY_FILE environment variables; when a key file is present,
// requests are signed with the Ed25519 private key it holds.
package client

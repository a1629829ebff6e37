// Package surveysvc implements the survey lifecycle: creation, voting, and
// the Open to Closed transition.
//
// A survey closes exactly once, by whichever trigger fires first: the vote
// ledger reporting quorum, or the deadline sweeper finding it past due. Both
// paths go through closeAndNotify, which is gated on the repository's
// close-changed flag, so a lost race is a silent no-op and never re-notifies.
//
// Closed-survey events go only to the clients that actually voted. New-survey
// events go to every live client, with the creator's display name substituted
// for its id in the outbound payload.
package surveysvc

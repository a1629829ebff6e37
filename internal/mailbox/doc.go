// Package mailbox implements the subscriber registry: one unbounded FIFO
// mailbox of pending notification frames per client id.
//
// Mailboxes are created lazily on first reference, whether that comes from a
// publisher or from a connecting consumer, and creation is atomic under the
// registry lock. Enqueue never blocks; only Dequeue suspends, on a
// notification channel that Enqueue closes and recreates on every append.
// Cancelling a Dequeue leaves the mailbox intact for a future reconnect.
//
// One live consumer per client id at a time; concurrent consumers on the
// same mailbox are not a supported configuration.
package mailbox

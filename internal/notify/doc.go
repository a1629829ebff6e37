// Package notify implements the notification bus: fan-out of survey events
// to subscriber mailboxes through a pluggable delivery transport.
//
// A failed delivery to one recipient never aborts the batch; the bus flips
// that client's liveness off and moves on. Publishers never learn about
// per-recipient failures.
//
// Example:
//
//	bus := notify.NewBus(repo, notify.NewMailboxTransport(registry), logger)
//	bus.PublishToAll(ctx, mailbox.TypeNewSurvey, payload)
//	bus.PublishToSubset(ctx, mailbox.TypeClosedSurvey, payload, voterIDs)
package notify

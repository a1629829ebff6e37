package notify

import (
	"context"
	"errors"

	"github.com/rzbill/canvass/internal/mailbox"
	"github.com/rzbill/canvass/internal/repo"
	"github.com/rzbill/canvass/pkg/log"
)

// Transport delivers one event to one client. An error means the client is
// unreachable; the bus reacts by flipping the client's liveness off.
type Transport interface {
	Deliver(ctx context.Context, client repo.Client, ev mailbox.Event) error
}

// MailboxTransport delivers by enqueueing into the in-process subscriber
// registry. Enqueue is non-blocking and cannot fail.
type MailboxTransport struct {
	reg *mailbox.Registry
}

// NewMailboxTransport creates a transport over the registry.
func NewMailboxTransport(reg *mailbox.Registry) *MailboxTransport {
	return &MailboxTransport{reg: reg}
}

// Deliver appends the event to the client's mailbox.
func (t *MailboxTransport) Deliver(_ context.Context, client repo.Client, ev mailbox.Event) error {
	t.reg.Ensure(client.ID).Enqueue(ev)
	return nil
}

// Bus fans events out to clients.
type Bus struct {
	repo      *repo.Repository
	transport Transport
	logger    log.Logger
}

// NewBus creates a bus publishing through the given transport.
func NewBus(r *repo.Repository, transport Transport, logger log.Logger) *Bus {
	return &Bus{repo: r, transport: transport, logger: logger}
}

// PublishToAll delivers the event to every currently live client. Events
// published for the same target keep publish order on that target's mailbox;
// there is no ordering guarantee across targets.
func (b *Bus) PublishToAll(ctx context.Context, eventType, data string) error {
	clients, err := b.repo.ListLiveClients()
	if err != nil {
		return err
	}
	ev := mailbox.Event{Type: eventType, Data: data}
	for _, c := range clients {
		b.deliver(ctx, c, ev)
	}
	return nil
}

// PublishToSubset delivers the event to the listed clients only. Ids that no
// longer resolve are skipped.
func (b *Bus) PublishToSubset(ctx context.Context, eventType, data string, clientIDs []string) error {
	ev := mailbox.Event{Type: eventType, Data: data}
	for _, id := range clientIDs {
		c, err := b.repo.FindClient(id)
		if err != nil {
			if !errors.Is(err, repo.ErrNotFound) {
				return err
			}
			b.logger.Warn("publish target missing", log.Str("client_id", id), log.Str("event", eventType))
			continue
		}
		b.deliver(ctx, c, ev)
	}
	return nil
}

// deliver pushes one event to one client. Failure degrades the recipient's
// liveness and is otherwise swallowed, isolating it from the rest of the
// batch.
func (b *Bus) deliver(ctx context.Context, c repo.Client, ev mailbox.Event) {
	if err := b.transport.Deliver(ctx, c, ev); err != nil {
		b.logger.Warn("delivery failed, marking client not live",
			log.Str("client_id", c.ID),
			log.Str("event", ev.Type),
			log.Err(err),
		)
		if lerr := b.repo.SetClientLiveness(c.ID, false); lerr != nil {
			b.logger.Error("liveness update failed", log.Str("client_id", c.ID), log.Err(lerr))
		}
		return
	}
	b.logger.Debug("delivered", log.Str("client_id", c.ID), log.Str("event", ev.Type))
}

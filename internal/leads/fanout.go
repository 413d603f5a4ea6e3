package leads

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/highdesertlabs/porchlight/internal/notify"
	"github.com/highdesertlabs/porchlight/internal/webhooks"
	"github.com/highdesertlabs/porchlight/pkg/logger"
)

// How long a background fan-out may run before being abandoned.
const fanoutDeadline = 30 * time.Second

// Fanout is the production Dispatcher: webhook delivery and notifications run
// as detached goroutines, at most once, with failures logged and isolated.
type Fanout struct {
	webhooks *webhooks.Dispatcher
	notifier *notify.Notifier
}

func NewFanout(webhookDispatcher *webhooks.Dispatcher, notifier *notify.Notifier) *Fanout {
	return &Fanout{webhooks: webhookDispatcher, notifier: notifier}
}

// Dispatch kicks off the background fan-out for one persisted lead and
// returns immediately.
func (f *Fanout) Dispatch(leadID uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), fanoutDeadline)
		defer cancel()
		if err := f.webhooks.DispatchLead(ctx, leadID); err != nil {
			logger.WarnEvent().Err(err).Str("lead_id", leadID.String()).Msg("Webhook fan-out failed")
		}
	}()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), fanoutDeadline)
		defer cancel()
		if err := f.notifier.NotifyLead(ctx, leadID); err != nil {
			logger.WarnEvent().Err(err).Str("lead_id", leadID.String()).Msg("Lead notification failed")
		}
	}()
}

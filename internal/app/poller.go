package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/five82/courier/internal/config"
	"github.com/five82/courier/internal/updates"
)

// StartUpdates subscribes to order updates and feeds them into the session
// store. It returns immediately; the caller closes the subscription.
func StartUpdates(ctx context.Context, sess *session, cfg config.Config) *updates.Subscription {
	ch := updates.New(sess.resolver, sess.client,
		updates.WithSocketPath(sess.client.Paths().OrderUpdatesSocket),
		updates.WithConnectTimeout(cfg.ConnectTimeout),
		updates.WithPollInterval(cfg.PollInterval),
		updates.WithStateHook(sess.store.SetChannelState),
		updates.WithLogger(sess.logger),
		updates.WithMetrics(sess.metrics))

	return ch.Subscribe(ctx,
		func(u updates.Update) {
			sess.store.ApplyUpdate(u)
			sess.noteBaseURL()
		},
		func(err error) {
			sess.store.RecordError(err)
			sess.noteBaseURL()
			sess.logger.Debug("order update poll failed", zap.Error(err))
		})
}

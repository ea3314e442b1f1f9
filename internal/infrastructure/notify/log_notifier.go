// Package notify delivers portal notifications. The only transport is the
// structured log; there is no real mail gateway.
package notify

import (
	"context"
	"slices"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tradeloom/portal/internal/core/ports"
)

const masked = "********"

type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notifier").Logger()}
}

// Send writes n as a single log event. Secret fields are masked.
func (l *LogNotifier) Send(ctx context.Context, n ports.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.log.Info().
		Str("kind", string(n.Kind)).
		Str("recipient", n.Recipient).
		Str("subject", n.Subject).
		Dict("fields", fieldsDict(n)).
		Msg("notification sent")
	return nil
}

func fieldsDict(n ports.Notification) *zerolog.Event {
	keys := make([]string, 0, len(n.Fields))
	for k := range n.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dict := zerolog.Dict()
	for _, k := range keys {
		v := n.Fields[k]
		if slices.Contains(n.Secret, k) {
			v = masked
		}
		dict = dict.Str(k, v)
	}
	return dict
}

package notifications

import (
	"context"

	"go.uber.org/multierr"
)

// MultiNotifier fans a task out to every configured notifier. One failing
// channel does not stop the others.
type MultiNotifier struct {
	notifiers []Notifier
}

func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	m := &MultiNotifier{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

func (m *MultiNotifier) Notify(ctx context.Context, task Task) error {
	var err error
	for _, n := range m.notifiers {
		err = multierr.Append(err, n.Notify(ctx, task))
	}
	return err
}

// Len reports how many channels are configured.
func (m *MultiNotifier) Len() int {
	return len(m.notifiers)
}

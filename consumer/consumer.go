package consumer

import "context"

// Consumer is a long-running message loop. Start blocks until ctx is
// cancelled or the underlying group is closed.
type Consumer interface {
	Start(ctx context.Context) error
}

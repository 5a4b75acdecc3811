// Package publish carries replayed events to downstream subscribers. The
// scheduler only sees the Publisher contract; behind it sit a WebSocket
// broadcast hub and, optionally, a Redis pub/sub channel.
package publish

import "context"

// Publisher hands serialized events to a transport. Fire-and-forget:
// delivery to individual subscribers is not observed and no delivery
// guarantees are assumed.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// Multi publishes to every transport in order. The first failure aborts the
// replay session; there is no retry at this layer.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, payload []byte) error {
	for _, p := range m {
		if err := p.Publish(ctx, payload); err != nil {
			return err
		}
	}
	return nil
}

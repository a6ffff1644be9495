package network

import (
	"context"
	"time"

	"github.com/aliakgoz/BingoBase/data"
)

// Subscribe - starts the event synthesizer and returns its channel. Events
// are best-effort: the buffer drops under pressure and consumers must keep
// polling for ground truth. The channel closes when ctx ends.
func (nm *NetworkManager) Subscribe(ctx context.Context) (<-chan data.Event, error) {
	ch := make(chan data.Event, eventBuffer)
	go nm.watchRounds(ctx, ch)

	return ch, nil
}

func (nm *NetworkManager) watchRounds(ctx context.Context, ch chan<- data.Event) {
	defer close(ch)

	var prev *data.Round
	delay := nm.pollInterval
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		cur, err := nm.latestRound(ctx)
		if err != nil {
			delay = growDelay(delay)
			log.Debug("event poll failed, backing off", "delay", delay, "error", err)
			continue
		}
		delay = nm.pollInterval
		if cur == nil {
			continue
		}

		for _, event := range diffEvents(prev, cur) {
			select {
			case ch <- event:
			default:
				log.Debug("event buffer full, dropped", "kind", event.Kind, "round", event.RoundID)
			}
		}
		prev = cur
	}
}

func (nm *NetworkManager) latestRound(ctx context.Context) (*data.Round, error) {
	id, err := nm.CurrentRoundID(ctx)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, nil
	}

	return nm.RoundInfo(ctx, id)
}

func growDelay(delay time.Duration) time.Duration {
	delay *= 2
	if delay > maxEventBackoff {
		delay = maxEventBackoff
	}

	return delay
}

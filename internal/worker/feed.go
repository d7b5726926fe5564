package worker

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// FeedChannel is the pub/sub channel carrying feed change notifications.
const FeedChannel = "feeds:changed"

// Feed carries "this feed changed" notifications to whoever recomputes the
// shift overview. With Redis every instance sharing the database hears
// every change; without it notifications stay in this process.
type Feed struct {
	rdb   *redis.Client
	local chan string
}

func NewFeed(rdb *redis.Client) *Feed {
	return &Feed{rdb: rdb, local: make(chan string, 1)}
}

// Notify announces a change of feed.
func (f *Feed) Notify(ctx context.Context, feed string) error {
	if f.rdb != nil {
		return f.rdb.Publish(ctx, FeedChannel, feed).Err()
	}
	select {
	case f.local <- feed:
	default:
		// a refresh is already pending and will see this change too
	}
	return nil
}

// Run calls onChange for every notification until ctx is done. onChange
// re-fetches everything, so notifications queued meanwhile collapse into one.
func (f *Feed) Run(ctx context.Context, onChange func(context.Context) error) {
	if f.rdb == nil {
		f.runLocal(ctx, onChange)
		return
	}

	sub := f.rdb.Subscribe(ctx, FeedChannel)
	defer sub.Close()
	msgs := sub.Channel()
	log.Info().Str("channel", FeedChannel).Msg("feed subscriber started")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			drain(msgs)
			refresh(ctx, msg.Payload, onChange)
		}
	}
}

func (f *Feed) runLocal(ctx context.Context, onChange func(context.Context) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case feed := <-f.local:
			refresh(ctx, feed, onChange)
		}
	}
}

func drain(msgs <-chan *redis.Message) {
	for {
		select {
		case <-msgs:
		default:
			return
		}
	}
}

func refresh(ctx context.Context, feed string, onChange func(context.Context) error) {
	if err := onChange(ctx); err != nil {
		log.Warn().Err(err).Str("feed", feed).Msg("refresh after feed change failed")
	}
}

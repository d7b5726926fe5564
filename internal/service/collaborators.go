package service

import (
	"context"

	"github.com/nozzip/seccional/internal/ledger"
)

// Feed names carried by FeedNotifier.
const (
	FeedTransactions = "transactions"
	FeedInventory    = "inventory"
)

// FeedNotifier announces that a feed changed so subscribers re-fetch it.
type FeedNotifier interface {
	Notify(ctx context.Context, feed string) error
}

// Broadcaster pushes a payload to every live subscriber.
type Broadcaster interface {
	Broadcast(v any)
}

// ArchiveMirror copies an archived day outside the primary store.
type ArchiveMirror interface {
	Mirror(ctx context.Context, day ledger.ArchivedDay) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string) error { return nil }

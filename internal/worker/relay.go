package worker

import (
	"context"
	"time"

	"shoplit/internal/domain"
	"shoplit/internal/queue"

	"github.com/sirupsen/logrus"
)

// OutboxRelay moves committed outbox rows onto the queue. A row is marked
// done in the same transaction that read it, after a successful publish, so a
// crash in between republishes it.
type OutboxRelay struct {
	tx        domain.Transactor
	outbox    domain.OutboxRepository
	publisher queue.Publisher
	batchSize int
	interval  time.Duration
	log       *logrus.Logger
}

func NewOutboxRelay(
	tx domain.Transactor,
	outbox domain.OutboxRepository,
	publisher queue.Publisher,
	batchSize int,
	interval time.Duration,
	logger *logrus.Logger,
) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 50
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &OutboxRelay{
		tx:        tx,
		outbox:    outbox,
		publisher: publisher,
		batchSize: batchSize,
		interval:  interval,
		log:       logger,
	}
}

// RelayOnce publishes at most one batch and returns how many rows it moved.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	relayed := 0
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		messages, err := r.outbox.FetchPendingOutbox(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(messages) == 0 {
			return nil
		}
		// A stuck publish must not hold the row locks past one poll interval.
		pubCtx, cancel := context.WithTimeout(ctx, r.interval)
		defer cancel()
		if err := r.publisher.Publish(pubCtx, extractContents(messages)); err != nil {
			return err
		}
		if err := r.outbox.MarkOutboxDone(ctx, extractIDs(messages)); err != nil {
			return err
		}
		relayed = len(messages)
		return nil
	})
	if err != nil {
		r.log.Errorf("Relay: Failed to relay outbox batch: %v", err)
		return 0, err
	}
	if relayed > 0 {
		r.log.Debugf("Relay: Relayed %d outbox messages", relayed)
	}
	return relayed, nil
}

// Run polls until ctx is cancelled. Full batches are drained without
// waiting for the next tick.
func (r *OutboxRelay) Run(ctx context.Context) error {
	r.log.Infof("Relay: Starting outbox relay (batch %d, interval %s)", r.batchSize, r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		for {
			n, err := r.RelayOnce(ctx)
			if err != nil || n < r.batchSize {
				break
			}
		}
		select {
		case <-ctx.Done():
			r.log.Info("Relay: Stopping outbox relay")
			return nil
		case <-ticker.C:
		}
	}
}

func extractIDs(messages []domain.OutboxMessage) []int64 {
	ids := make([]int64, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.ID)
	}
	return ids
}

func extractContents(messages []domain.OutboxMessage) [][]byte {
	contents := make([][]byte, 0, len(messages))
	for _, msg := range messages {
		contents = append(contents, msg.Content)
	}
	return contents
}

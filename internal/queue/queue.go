// Package queue records network mutations made while the application is
// offline and replays them once connectivity returns.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	apperr "github.com/tknelms/carkeeper/backend/internal/errors"
	"github.com/tknelms/carkeeper/backend/internal/logging"
	"github.com/tknelms/carkeeper/backend/internal/models"
	"github.com/tknelms/carkeeper/backend/internal/store"
)

// ReplayFunc replays one pending operation against the remote API. A nil
// return confirms the replay and releases the operation from the queue.
type ReplayFunc func(ctx context.Context, op models.PendingOperation) error

// Service is the pending-operation queue, persisted through the
// collection access layer so queued mutations survive restarts.
type Service struct {
	ops store.Collection[models.PendingOperation]
	seq atomic.Uint64
}

// New creates the queue service on top of an opened store.
func New(s *store.Store) *Service {
	return &Service{
		ops: store.NewCollection[models.PendingOperation](s, store.PendingOperations),
	}
}

// Enqueue records a deferred network mutation and returns its id. The id
// is time-based; a process-local sequence keeps bursts unique.
func (s *Service) Enqueue(ctx context.Context, method, url string, data json.RawMessage) (string, error) {
	if method == "" || url == "" {
		return "", apperr.New(apperr.ErrValidation, "pending operation needs a method and a url")
	}
	now := time.Now().UTC()
	op := models.PendingOperation{
		ID:        s.newID(now),
		Method:    method,
		URL:       url,
		Data:      data,
		Timestamp: now.Format(time.RFC3339Nano),
	}
	if _, err := s.ops.Put(ctx, op); err != nil {
		return "", apperr.Wrap(apperr.ErrQueueFailed, "persisting pending operation", err)
	}
	logging.Debug("queued offline operation",
		map[string]any{"id": op.ID, "method": method, "url": url})
	return op.ID, nil
}

func (s *Service) newID(now time.Time) string {
	return "op-" + strconv.FormatInt(now.UnixNano(), 36) + "-" + strconv.FormatUint(s.seq.Add(1), 36)
}

// ListPending returns every queued operation. Retrieval order is
// engine-native; callers wanting FIFO replay sort by timestamp, see
// SortByTimestamp.
func (s *Service) ListPending(ctx context.Context) ([]models.PendingOperation, error) {
	return s.ops.All(ctx)
}

// Remove deletes the listed operations after confirmed replay.
// Deletions are attempted independently: one failure is logged and does
// not block the others. The aggregated error reports any that failed.
func (s *Service) Remove(ctx context.Context, ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := s.ops.Delete(ctx, id); err != nil {
			logging.Error("failed to remove pending operation", err, map[string]any{"id": id})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Drain replays queued operations oldest-first and removes each one that
// replays successfully. Failed operations stay queued for the next
// drain. Returns the number replayed; the error aggregates replay and
// removal failures. Not atomic: a partial drain leaves the remainder
// queued.
func (s *Service) Drain(ctx context.Context, replay ReplayFunc) (int, error) {
	ops, err := s.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	SortByTimestamp(ops)

	replayed := 0
	var errs []error
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := replay(ctx, op); err != nil {
			logging.Warn("replay failed, operation stays queued",
				map[string]any{"id": op.ID, "method": op.Method, "url": op.URL, "error": err.Error()})
			errs = append(errs, err)
			continue
		}
		replayed++
		if err := s.ops.Delete(ctx, op.ID); err != nil {
			logging.Error("failed to remove replayed operation", err, map[string]any{"id": op.ID})
			errs = append(errs, err)
		}
	}
	if replayed > 0 {
		logging.Info("drained offline queue", map[string]any{"replayed": replayed, "remaining": len(ops) - replayed})
	}
	return replayed, errors.Join(errs...)
}

// SortByTimestamp orders operations oldest-first for FIFO replay.
// Operations whose timestamps do not parse sort by raw string as a tie
// break.
func SortByTimestamp(ops []models.PendingOperation) {
	sort.SliceStable(ops, func(i, j int) bool {
		ti, erri := time.Parse(time.RFC3339Nano, ops[i].Timestamp)
		tj, errj := time.Parse(time.RFC3339Nano, ops[j].Timestamp)
		if erri != nil || errj != nil {
			return ops[i].Timestamp < ops[j].Timestamp
		}
		if ti.Equal(tj) {
			return ops[i].ID < ops[j].ID
		}
		return ti.Before(tj)
	})
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/engiflow/engiflow/internal/review"
)

// ActionRepo stores staged e-sign actions in Redis, one per actor.
// A staged action is the PendingConfirmation state of the gate:
// ephemeral per-session data, not part of the durable audit trail,
// which is why it lives in Redis rather than MySQL. Staging a new
// action overwrites the pending one (no queueing); Clear is called
// on both commit and cancel. Keys carry no TTL; pending
// confirmations do not auto-expire in this scope.
type ActionRepo struct {
	rdb *redis.Client
}

func NewActionRepo(rdb *redis.Client) *ActionRepo { return &ActionRepo{rdb: rdb} }

// ErrActionStoreUnavailable is returned when no Redis connection was
// established at startup. The confirmation gate cannot operate
// without its staging store.
var ErrActionStoreUnavailable = errors.New("action store unavailable")

func actionKey(actorEmail string) string {
	return "esign:pending:" + strings.ToLower(strings.TrimSpace(actorEmail))
}

// Stage saves the staged action for its actor, replacing any pending one.
func (r *ActionRepo) Stage(ctx context.Context, a review.StagedAction) error {
	if r.rdb == nil {
		return ErrActionStoreUnavailable
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, actionKey(a.ActorEmail), raw, 0).Err()
}

// Pending returns the actor's staged action, or ErrNoPendingAction.
func (r *ActionRepo) Pending(ctx context.Context, actorEmail string) (review.StagedAction, error) {
	if r.rdb == nil {
		return review.StagedAction{}, ErrActionStoreUnavailable
	}
	raw, err := r.rdb.Get(ctx, actionKey(actorEmail)).Bytes()
	if err == redis.Nil {
		return review.StagedAction{}, ErrNoPendingAction
	}
	if err != nil {
		return review.StagedAction{}, err
	}
	var a review.StagedAction
	if err := json.Unmarshal(raw, &a); err != nil {
		// corrupt staged data is treated as absent rather than fatal
		_ = r.rdb.Del(ctx, actionKey(actorEmail)).Err()
		return review.StagedAction{}, ErrNoPendingAction
	}
	return a, nil
}

// Clear discards the actor's staged action. Clearing when nothing is
// pending is a no-op.
func (r *ActionRepo) Clear(ctx context.Context, actorEmail string) error {
	if r.rdb == nil {
		return ErrActionStoreUnavailable
	}
	return r.rdb.Del(ctx, actionKey(actorEmail)).Err()
}

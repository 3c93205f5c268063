// Package collab carries the advisory collaboration signals shown in
// the document detail view: who is currently looking at a document
// and who is typing a comment. The signals are best effort and lossy:
// they are mirrored into short-lived Redis keys and broadcast on a
// pub/sub channel, and are never consulted by any state-machine
// decision. Without a Redis connection every operation degrades to a
// no-op.
package collab

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Signal types accepted from clients.
const (
	SignalJoin   = "doc-join"
	SignalLeave  = "doc-leave"
	SignalTyping = "doc-comment-typing"
)

// presenceTTL bounds how long a viewer counts as present without a
// fresh join signal. typingTTL is the quiet period after which a
// collaborator counts as having stopped typing.
const (
	presenceTTL = 30 * time.Second
	typingTTL   = 2 * time.Second

	channel = "collab.events"
)

// ErrUnknownSignal is returned for signal types outside the accepted set.
var ErrUnknownSignal = errors.New("unknown collaboration signal")

// Event is the broadcast payload carried on the collab.events channel.
type Event struct {
	Type     string `json:"type"` // doc-join | doc-leave | doc-comment-typing
	DocID    uint64 `json:"doc_id"`
	User     string `json:"user"`  // display name
	Email    string `json:"email"` // durable key
	Content  string `json:"content,omitempty"`
	SignalAt string `json:"signal_at"`
}

// Presence is the view returned to clients polling a document.
type Presence struct {
	Viewing []string `json:"viewing"` // display names with a live presence key
	Typing  []string `json:"typing"`  // display names with a live typing key
}

type Hub struct {
	rdb *redis.Client
}

func NewHub(rdb *redis.Client) *Hub { return &Hub{rdb: rdb} }

func presenceKey(docID uint64, email string) string {
	return "collab:doc:" + strconv.FormatUint(docID, 10) + ":present:" + strings.ToLower(email)
}

func typingKey(docID uint64, email string) string {
	return "collab:doc:" + strconv.FormatUint(docID, 10) + ":typing:" + strings.ToLower(email)
}

// Signal records one collaboration event: the broadcast goes out on
// the shared channel and the matching volatile key is refreshed or
// dropped. Keys expire on their own, so a client that goes away
// silently ages out after the TTL; the 2 second typing TTL is what
// turns a stream of typing signals into a "stopped typing" edge.
func (h *Hub) Signal(ctx context.Context, ev Event) error {
	switch ev.Type {
	case SignalJoin, SignalLeave, SignalTyping:
	default:
		return ErrUnknownSignal
	}
	if h.rdb == nil {
		return nil
	}
	ev.SignalAt = time.Now().UTC().Format(time.RFC3339)

	switch ev.Type {
	case SignalJoin:
		if err := h.rdb.Set(ctx, presenceKey(ev.DocID, ev.Email), ev.User, presenceTTL).Err(); err != nil {
			return err
		}
	case SignalLeave:
		_ = h.rdb.Del(ctx, presenceKey(ev.DocID, ev.Email), typingKey(ev.DocID, ev.Email)).Err()
	case SignalTyping:
		if err := h.rdb.Set(ctx, typingKey(ev.DocID, ev.Email), ev.User, typingTTL).Err(); err != nil {
			return err
		}
		// typing implies presence
		_ = h.rdb.Set(ctx, presenceKey(ev.DocID, ev.Email), ev.User, presenceTTL).Err()
	}

	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, channel, raw).Err()
}

// PresenceFor lists the collaborators currently viewing or typing on
// a document, excluding the asking user.
func (h *Hub) PresenceFor(ctx context.Context, docID uint64, selfEmail string) (Presence, error) {
	out := Presence{Viewing: []string{}, Typing: []string{}}
	if h.rdb == nil {
		return out, nil
	}
	self := strings.ToLower(strings.TrimSpace(selfEmail))

	collect := func(pattern, selfKey string) ([]string, error) {
		names := []string{}
		iter := h.rdb.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			key := iter.Val()
			if key == selfKey {
				continue
			}
			name, err := h.rdb.Get(ctx, key).Result()
			if err == redis.Nil {
				continue // expired between scan and get
			}
			if err != nil {
				return nil, err
			}
			names = append(names, name)
		}
		return names, iter.Err()
	}

	prefix := "collab:doc:" + strconv.FormatUint(docID, 10)
	viewing, err := collect(prefix+":present:*", presenceKey(docID, self))
	if err != nil {
		return out, err
	}
	typing, err := collect(prefix+":typing:*", typingKey(docID, self))
	if err != nil {
		return out, err
	}
	out.Viewing, out.Typing = viewing, typing
	return out, nil
}

package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/ebookshop-backend/internal/order"
	"github.com/angelmondragon/ebookshop-backend/pkg/enums"
	"github.com/angelmondragon/ebookshop-backend/pkg/logger"
	"github.com/google/uuid"
)

const defaultPublishTimeout = 10 * time.Second

// Notifier hands placed orders to whoever delivers the files.
type Notifier interface {
	OrderPlaced(ctx context.Context, snap order.Snapshot, lang string) error
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// PubSubNotifier publishes order.placed events to a Pub/Sub topic.
type PubSubNotifier struct {
	pub     publisher
	logg    *logger.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewPubSubNotifier wraps a Pub/Sub publisher handle.
func NewPubSubNotifier(p *gcppubsub.Publisher, logg *logger.Logger) (*PubSubNotifier, error) {
	if p == nil {
		return nil, errors.New("pubsub publisher required")
	}
	return newPubSubNotifier(&gcpPublisher{Publisher: p}, logg), nil
}

func newPubSubNotifier(pub publisher, logg *logger.Logger) *PubSubNotifier {
	return &PubSubNotifier{pub: pub, logg: logg, timeout: defaultPublishTimeout, now: time.Now}
}

// OrderPlaced publishes the order and waits for the server acknowledgement.
func (n *PubSubNotifier) OrderPlaced(ctx context.Context, snap order.Snapshot, lang string) error {
	data, err := json.Marshal(NewOrderPlaced(snap, lang))
	if err != nil {
		return fmt.Errorf("marshal order payload: %w", err)
	}
	envelope := Envelope{
		Version:    envelopeVersion,
		EventID:    uuid.NewString(),
		EventType:  string(enums.EventOrderPlaced),
		OccurredAt: n.now().UTC(),
		Data:       data,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	msg := &gcppubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"event_id":        envelope.EventID,
			"event_type":      envelope.EventType,
			"order_reference": snap.Reference,
			"created_at":      envelope.OccurredAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	result := n.pub.Publish(publishCtx, msg)
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	serverID, err := result.Get(publishCtx)
	if err != nil {
		return fmt.Errorf("publish %s: %w", envelope.EventType, err)
	}

	if n.logg != nil {
		logCtx := n.logg.WithFields(ctx, map[string]any{
			"event_id":   envelope.EventID,
			"message_id": serverID,
		})
		n.logg.Info(n.logg.WithOrderID(logCtx, snap.Reference), "fulfillment.order_published")
	}
	return nil
}

// Noop drops every event. It is used when Pub/Sub is not configured.
type Noop struct {
	logg *logger.Logger
}

// NewNoop returns a notifier that only logs.
func NewNoop(logg *logger.Logger) Noop {
	return Noop{logg: logg}
}

func (n Noop) OrderPlaced(ctx context.Context, snap order.Snapshot, _ string) error {
	if n.logg != nil {
		n.logg.Debug(n.logg.WithOrderID(ctx, snap.Reference), "fulfillment.disabled")
	}
	return nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}

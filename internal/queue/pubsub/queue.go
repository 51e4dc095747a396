// Package pubsub provides a Google Cloud Pub/Sub backed reconciliation queue.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"go.uber.org/zap"

	"github.com/previewd/previewd/internal/preview"
)

// Config identifies the topic and subscription used for reconciliation
// requests.
type Config struct {
	ProjectID      string
	TopicID        string
	SubscriptionID string
}

// Queue publishes reconciliation requests to a topic and receives them
// from a subscription. Messages carry the request as JSON.
type Queue struct {
	client *pubsub.Client
	cfg    Config
	logger *zap.Logger

	recvCancel context.CancelFunc
	recvCh     chan preview.Request
	recvDone   chan struct{}
	recvErr    error
}

func fullTopicName(projectID, topicID string) string {
	return fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
}

func fullSubscriptionName(projectID, subID string) string {
	return fmt.Sprintf("projects/%s/subscriptions/%s", projectID, subID)
}

// NewQueue creates a Pub/Sub client and verifies the topic exists. It
// authenticates using Google Cloud's Application Default Credentials.
func NewQueue(ctx context.Context, cfg Config, logger *zap.Logger) (*Queue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	request := &pubsubpb.GetTopicRequest{
		Topic: fullTopicName(cfg.ProjectID, cfg.TopicID),
	}
	topic, err := client.TopicAdminClient.GetTopic(ctx, request)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("failed to close pubsub client after topic retrieval failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("failed to get pubsub topic '%s': %w", cfg.TopicID, err)
	}
	if topic.State != pubsubpb.Topic_ACTIVE {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("failed to close pubsub client after topic state check", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("pubsub topic '%s' is not active in project '%s'", cfg.TopicID, cfg.ProjectID)
	}

	// The receive loop lives for the queue's lifetime, not for whichever
	// caller happens to dequeue first; Close cancels it.
	recvCtx, recvCancel := context.WithCancel(context.Background())
	q := &Queue{
		client:     client,
		cfg:        cfg,
		logger:     logger,
		recvCancel: recvCancel,
		recvCh:     make(chan preview.Request),
		recvDone:   make(chan struct{}),
	}
	go q.receive(recvCtx)
	return q, nil
}

// Enqueue publishes the request to the topic. The Pub/Sub client handles
// batching and retries in the background; Enqueue does not wait for the
// server acknowledgment.
func (q *Queue) Enqueue(ctx context.Context, req preview.Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal reconciliation request: %w", err)
	}
	publisher := q.client.Publisher(fullTopicName(q.cfg.ProjectID, q.cfg.TopicID))
	publisher.Publish(ctx, &pubsub.Message{Data: data})
	return nil
}

// Dequeue returns the next request from the subscription. Messages feed an
// unbuffered channel, so each is acked only once a worker has taken it. Once
// the receive loop stops, every pending and future Dequeue reports the
// failure rather than blocking.
func (q *Queue) Dequeue(ctx context.Context) (preview.Request, error) {
	select {
	case <-ctx.Done():
		return preview.Request{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case req := <-q.recvCh:
		return req, nil
	case <-q.recvDone:
		return preview.Request{}, fmt.Errorf("pubsub receive stopped: %w", q.stopCause())
	}
}

func (q *Queue) receive(ctx context.Context) {
	subscriber := q.client.Subscriber(fullSubscriptionName(q.cfg.ProjectID, q.cfg.SubscriptionID))
	err := subscriber.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
		var req preview.Request
		if unmarshalErr := json.Unmarshal(msg.Data, &req); unmarshalErr != nil {
			q.logger.Warn("dropping malformed reconciliation message", zap.Error(unmarshalErr))
			msg.Ack()
			return
		}
		select {
		case q.recvCh <- req:
			msg.Ack()
		case <-msgCtx.Done():
			msg.Nack()
		}
	})
	// recvErr is written exactly once, before recvDone closes; readers only
	// look at it after observing the close.
	q.recvErr = err
	close(q.recvDone)
}

func (q *Queue) stopCause() error {
	if q.recvErr != nil {
		return q.recvErr
	}
	return errQueueClosed
}

var errQueueClosed = errors.New("queue closed")

// Close stops the receive loop and closes the underlying client connection.
func (q *Queue) Close() error {
	q.recvCancel()
	if err := q.client.Close(); err != nil {
		return fmt.Errorf("failed to close pubsub client: %w", err)
	}
	return nil
}

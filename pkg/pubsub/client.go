package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/ebookshop-backend/pkg/config"
	"github.com/angelmondragon/ebookshop-backend/pkg/logger"
)

// Client holds the Pub/Sub connection and the resolved orders topic.
type Client struct {
	client      *pubsub.Client
	ordersTopic string
	cfg         config.PubSubConfig
}

// NewClient connects to Pub/Sub and checks the orders topic, creating it
// when cfg.CreateTopic is set. PUBSUB_EMULATOR_HOST is honoured by the SDK.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	topic := topicPath(gcp.ProjectID, cfg.OrdersTopic)
	if topic == "" {
		return nil, errors.New("pubsub needs a gcp project id and an orders topic")
	}

	psClient, err := pubsub.NewClient(ctx, strings.TrimSpace(gcp.ProjectID))
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c := &Client{client: psClient, ordersTopic: topic, cfg: cfg}

	created, err := c.ensureTopic(ctx)
	if err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"topic": topic, "created": created}), "pubsub client initialized")
	}
	return c, nil
}

func (c *Client) ensureTopic(ctx context.Context) (bool, error) {
	admin := c.client.TopicAdminClient
	_, err := admin.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: c.ordersTopic})
	switch {
	case err == nil:
		return false, nil
	case status.Code(err) != codes.NotFound:
		return false, fmt.Errorf("checking topic %s: %w", c.ordersTopic, err)
	case !c.cfg.CreateTopic:
		return false, fmt.Errorf("topic %s does not exist", c.ordersTopic)
	}

	_, err = admin.CreateTopic(ctx, &pubsubpb.Topic{Name: c.ordersTopic})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return false, fmt.Errorf("creating topic %s: %w", c.ordersTopic, err)
	}
	return true, nil
}

// OrdersPublisher returns the publisher for placed-order events, batching
// for at most cfg.PublishDelay. Callers Stop it before Close.
func (c *Client) OrdersPublisher() *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	p := c.client.Publisher(c.ordersTopic)
	if c.cfg.PublishDelay > 0 {
		p.PublishSettings.DelayThreshold = c.cfg.PublishDelay
	}
	return p
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// topicPath accepts a short topic id or a full projects/<p>/topics/<t> name.
func topicPath(projectID, topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ""
	}
	if strings.HasPrefix(topic, "projects/") && strings.Contains(topic, "/topics/") {
		return topic
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return ""
	}
	return "projects/" + projectID + "/topics/" + topic
}

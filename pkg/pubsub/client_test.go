package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/ebookshop-backend/pkg/config"
)

func TestTopicPath(t *testing.T) {
	cases := []struct {
		project, topic, want string
	}{
		{"shop-prod", "orders", "projects/shop-prod/topics/orders"},
		{" shop-prod ", " orders ", "projects/shop-prod/topics/orders"},
		{"", "projects/other/topics/orders-feed", "projects/other/topics/orders-feed"},
		{"shop-prod", "", ""},
		{"", "orders", ""},
	}
	for _, tc := range cases {
		if got := topicPath(tc.project, tc.topic); got != tc.want {
			t.Fatalf("topicPath(%q, %q) = %q, want %q", tc.project, tc.topic, got, tc.want)
		}
	}
}

func TestNilClientIsInert(t *testing.T) {
	var c *Client
	if c.OrdersPublisher() != nil {
		t.Fatal("nil client must not hand out publishers")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client should be a no-op: %v", err)
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{OrdersTopic: "orders"}, nil); err == nil {
		t.Fatal("expected missing project id to fail")
	}
}

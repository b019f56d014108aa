package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultChannel = "restock:events"
	cycleEventType = "restock.cycle"
)

// Event is the message published for every cycle.
type Event struct {
	Type       string             `json:"type"`
	CycleID    string             `json:"cycle_id"`
	Status     domain.CycleStatus `json:"status"`
	Decisions  int                `json:"decisions"`
	Skipped    int                `json:"skipped"`
	TotalSpent domain.Money       `json:"total_spent"`
	Summary    string             `json:"summary"`
}

func NewEvent(report *domain.CycleReport) Event {
	return Event{
		Type:       cycleEventType,
		CycleID:    report.CycleID,
		Status:     report.Status,
		Decisions:  len(report.Decisions),
		Skipped:    len(report.Skipped),
		TotalSpent: report.TotalSpent,
		Summary:    FormatSummary(report),
	}
}

// RedisNotifier publishes cycle events on a redis pub/sub channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Notify(ctx context.Context, report *domain.CycleReport) error {
	payload, err := json.Marshal(NewEvent(report))
	if err != nil {
		return fmt.Errorf("encode cycle event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

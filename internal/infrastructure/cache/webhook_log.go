package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	webhookLogKey = "webhook:events"
	webhookLogCap = 200
)

// WebhookLogEntry is a diagnostic snapshot of one received provider event.
// The log is a bounded redis list, never authoritative state: webhook
// processing does not depend on it and a trim losing old entries is fine.
type WebhookLogEntry struct {
	EventType  string    `json:"event_type"`
	EventID    string    `json:"event_id,omitempty"`
	Accepted   bool      `json:"accepted"`
	Detail     string    `json:"detail,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

type WebhookLog struct {
	client *RedisClient
}

func NewWebhookLog(client *RedisClient) *WebhookLog {
	return &WebhookLog{client: client}
}

func (l *WebhookLog) Append(ctx context.Context, entry WebhookLogEntry) error {
	if l == nil || l.client == nil {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook log entry: %w", err)
	}

	pipe := l.client.Pipeline()
	pipe.LPush(ctx, webhookLogKey, data)
	pipe.LTrim(ctx, webhookLogKey, 0, webhookLogCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append webhook log: %w", err)
	}

	return nil
}

func (l *WebhookLog) Recent(ctx context.Context, limit int) ([]WebhookLogEntry, error) {
	if l == nil || l.client == nil {
		return nil, nil
	}
	if limit <= 0 || limit > webhookLogCap {
		limit = webhookLogCap
	}

	raw, err := l.client.LRange(ctx, webhookLogKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook log: %w", err)
	}

	entries := make([]WebhookLogEntry, 0, len(raw))
	for _, item := range raw {
		var entry WebhookLogEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

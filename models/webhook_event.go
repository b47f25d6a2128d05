package models

import "time"

// WebhookEvent records a processed payment-provider event so retries are ignored.
type WebhookEvent struct {
	EventID     string    `json:"eventId" bson:"eventId"`
	Type        string    `json:"type" bson:"type"`
	ProcessedAt time.Time `json:"processedAt" bson:"processedAt"`
}

package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-service/models"
)

const jobOrderConfirmation = "order_confirmation"

// EmailJob is the SQS message body for queued email.
type EmailJob struct {
	Kind  string        `json:"kind"`
	Order *models.Order `json:"order"`
}

// QueueSender is satisfied by pkg/aws.SQSQueue.
type QueueSender interface {
	SendMessage(ctx context.Context, body string) error
}

// SQSEmailQueue defers order email to a background consumer.
type SQSEmailQueue struct {
	queue QueueSender
}

func NewSQSEmailQueue(queue QueueSender) *SQSEmailQueue {
	return &SQSEmailQueue{queue: queue}
}

func (q *SQSEmailQueue) EnqueueOrderConfirmation(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(EmailJob{Kind: jobOrderConfirmation, Order: order})
	if err != nil {
		return err
	}
	return q.queue.SendMessage(ctx, string(data))
}

// DirectEmailQueue sends immediately, for deployments without a queue.
type DirectEmailQueue struct {
	mailer *Mailer
}

func NewDirectEmailQueue(mailer *Mailer) *DirectEmailQueue {
	return &DirectEmailQueue{mailer: mailer}
}

func (q *DirectEmailQueue) EnqueueOrderConfirmation(ctx context.Context, order *models.Order) error {
	return q.mailer.SendOrderConfirmation(ctx, order)
}

// EmailJobHandler returns the SQS message handler that drains the queue.
func EmailJobHandler(mailer *Mailer) func(ctx context.Context, body string) error {
	return func(ctx context.Context, body string) error {
		var job EmailJob
		if err := json.Unmarshal([]byte(body), &job); err != nil {
			return fmt.Errorf("decode email job: %w", err)
		}
		switch job.Kind {
		case jobOrderConfirmation:
			if job.Order == nil {
				return fmt.Errorf("email job without order")
			}
			return mailer.SendOrderConfirmation(ctx, job.Order)
		default:
			return fmt.Errorf("unknown email job kind %q", job.Kind)
		}
	}
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-service/database"
	"storefront-service/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoWebhookEventRepository dedupes on the unique eventId index.
type MongoWebhookEventRepository struct {
	collection *mongo.Collection
}

func NewMongoWebhookEventRepository(db *mongo.Database) *MongoWebhookEventRepository {
	return &MongoWebhookEventRepository{collection: db.Collection(database.WebhookEventsCollection)}
}

func (r *MongoWebhookEventRepository) MarkProcessed(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	if event.ProcessedAt.IsZero() {
		event.ProcessedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, event)
	if err := mapErr(err); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *MongoWebhookEventRepository) Release(ctx context.Context, eventID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"eventId": eventID})
	return err
}

// DynamoWebhookEventRepository dedupes with a conditional put keyed on event_id.
type DynamoWebhookEventRepository struct {
	client *dynamodb.Client
	table  string
}

func NewDynamoWebhookEventRepository(client *dynamodb.Client, table string) *DynamoWebhookEventRepository {
	return &DynamoWebhookEventRepository{client: client, table: table}
}

type ddbWebhookEvent struct {
	EventID     string `dynamodbav:"event_id"`
	Type        string `dynamodbav:"type"`
	ProcessedAt string `dynamodbav:"processed_at"`
	ExpiresAt   int64  `dynamodbav:"expires_at"`
}

// webhookEventTTL is the DynamoDB TTL for processed ids. Stripe retries for up to three days.
const webhookEventTTL = 30 * 24 * time.Hour

func (r *DynamoWebhookEventRepository) MarkProcessed(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	if event.ProcessedAt.IsZero() {
		event.ProcessedAt = time.Now().UTC()
	}
	item, err := attributevalue.MarshalMap(ddbWebhookEvent{
		EventID:     event.EventID,
		Type:        event.Type,
		ProcessedAt: event.ProcessedAt.Format(time.RFC3339),
		ExpiresAt:   event.ProcessedAt.Add(webhookEventTTL).Unix(),
	})
	if err != nil {
		return false, fmt.Errorf("marshal webhook event: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &r.table,
		Item:                item,
		ConditionExpression: strPtr("attribute_not_exists(event_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return true, nil
}

func (r *DynamoWebhookEventRepository) Release(ctx context.Context, eventID string) error {
	key, err := attributevalue.MarshalMap(map[string]string{"event_id": eventID})
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: &r.table, Key: key}); err != nil {
		return fmt.Errorf("dynamodb DeleteItem failed: %w", err)
	}
	return nil
}

func strPtr(s string) *string { return &s }

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/Miguelburitica/serverless-localMarket/internal/domain"
	"github.com/Miguelburitica/serverless-localMarket/internal/query"
)

type OrderRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewOrderRepository(client *dynamodb.Client, tableName string) *OrderRepository {
	return &OrderRepository{
		client:    client,
		tableName: tableName,
	}
}

var orderIndexes = []query.Index{
	{Name: "user_id-created_at-index", Field: "user_id", SortField: "created_at"},
	{Name: "seller_id-created_at-index", Field: "seller_id", SortField: "created_at"},
}

func (r *OrderRepository) Indexes() []query.Index {
	return orderIndexes
}

func (r *OrderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var order *domain.Order
	err := withRetry(ctx, func() error {
		result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"order_id": &types.AttributeValueMemberS{Value: orderID},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to get item: %w", err)
		}
		if result.Item == nil {
			return ErrNotFound
		}
		order = &domain.Order{}
		return attributevalue.UnmarshalMap(result.Item, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Put persists an order. Line items are immutable after creation; only
// status transitions rewrite an existing record.
func (r *OrderRepository) Put(ctx context.Context, order *domain.Order) error {
	now := time.Now().UTC()
	if order.OrderID == "" {
		order.OrderID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	av, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	return withRetry(ctx, func() error {
		_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(r.tableName),
			Item:      av,
		})
		if err != nil {
			return fmt.Errorf("failed to put item: %w", err)
		}
		return nil
	})
}

func (r *OrderRepository) Query(ctx context.Context, plan query.Plan) ([]domain.Order, error) {
	return queryItems(ctx, r.client, r.tableName, plan, orderAttr)
}

func orderAttr(o *domain.Order, field string) string {
	switch field {
	case "user_id":
		return o.UserID
	case "seller_id":
		return o.SellerID
	case "status":
		return string(o.Status)
	}
	return ""
}

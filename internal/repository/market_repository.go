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

type MarketRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewMarketRepository(client *dynamodb.Client, tableName string) *MarketRepository {
	return &MarketRepository{
		client:    client,
		tableName: tableName,
	}
}

var marketIndexes = []query.Index{
	{Name: "city-index", Field: "city", SortField: "created_at"},
}

func (r *MarketRepository) Indexes() []query.Index {
	return marketIndexes
}

func (r *MarketRepository) Get(ctx context.Context, marketID string) (*domain.Market, error) {
	var market *domain.Market
	err := withRetry(ctx, func() error {
		result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"market_id": &types.AttributeValueMemberS{Value: marketID},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to get item: %w", err)
		}
		if result.Item == nil {
			return ErrNotFound
		}
		market = &domain.Market{}
		return attributevalue.UnmarshalMap(result.Item, market)
	})
	if err != nil {
		return nil, err
	}
	return market, nil
}

// Put is the administrative write path; markets are read-only through the
// HTTP surface.
func (r *MarketRepository) Put(ctx context.Context, market *domain.Market) error {
	now := time.Now().UTC()
	if market.MarketID == "" {
		market.MarketID = uuid.NewString()
	}
	if market.CreatedAt.IsZero() {
		market.CreatedAt = now
	}
	market.UpdatedAt = now

	av, err := attributevalue.MarshalMap(market)
	if err != nil {
		return fmt.Errorf("failed to marshal market: %w", err)
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

func (r *MarketRepository) Query(ctx context.Context, plan query.Plan) ([]domain.Market, error) {
	return queryItems(ctx, r.client, r.tableName, plan, marketAttr)
}

func marketAttr(m *domain.Market, field string) string {
	switch field {
	case "city":
		return m.City
	case "name":
		return m.Name
	}
	return ""
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/Miguelburitica/serverless-localMarket/internal/domain"
	"github.com/Miguelburitica/serverless-localMarket/internal/query"
)

type ProductRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewProductRepository(client *dynamodb.Client, tableName string) *ProductRepository {
	return &ProductRepository{
		client:    client,
		tableName: tableName,
	}
}

var productIndexes = []query.Index{
	{Name: "market_id-created_at-index", Field: "market_id", SortField: "created_at"},
	{Name: "category-created_at-index", Field: "category", SortField: "created_at"},
	{Name: "seller_id-created_at-index", Field: "seller_id", SortField: "created_at"},
}

// Indexes lists the secondary lookup paths the products table supports.
func (r *ProductRepository) Indexes() []query.Index {
	return productIndexes
}

func (r *ProductRepository) Get(ctx context.Context, productID string) (*domain.Product, error) {
	var product *domain.Product
	err := withRetry(ctx, func() error {
		result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"product_id": &types.AttributeValueMemberS{Value: productID},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to get item: %w", err)
		}
		if result.Item == nil {
			return ErrNotFound
		}
		product = &domain.Product{}
		return attributevalue.UnmarshalMap(result.Item, product)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Put upserts a product, assigning an id and created_at when absent.
// Every write refreshes updated_at.
func (r *ProductRepository) Put(ctx context.Context, product *domain.Product) error {
	now := time.Now().UTC()
	if product.ProductID == "" {
		product.ProductID = uuid.NewString()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	av, err := attributevalue.MarshalMap(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
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

func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	return withRetry(ctx, func() error {
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"product_id": &types.AttributeValueMemberS{Value: productID},
			},
			ConditionExpression: aws.String("attribute_exists(product_id)"),
		})
		if err != nil {
			var ccf *types.ConditionalCheckFailedException
			if errors.As(err, &ccf) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to delete item: %w", err)
		}
		return nil
	})
}

func (r *ProductRepository) Query(ctx context.Context, plan query.Plan) ([]domain.Product, error) {
	return queryItems(ctx, r.client, r.tableName, plan, productAttr)
}

func productAttr(p *domain.Product, field string) string {
	switch field {
	case "market_id":
		return p.MarketID
	case "category":
		return p.Category
	case "seller_id":
		return p.SellerID
	case "name":
		return p.Name
	}
	return ""
}

// DecrementStock applies a conditional stock decrement: the update only
// lands when the stored stock still covers the quantity at write time, so
// concurrent orders cannot oversell. Returns the remaining stock.
func (r *ProductRepository) DecrementStock(ctx context.Context, productID string, quantity int) (int, error) {
	update := expression.Set(
		expression.Name("stock"),
		expression.Minus(
			expression.Name("stock"),
			expression.Value(quantity),
		),
	).Set(
		expression.Name("updated_at"),
		expression.Value(time.Now().UTC()),
	)

	condition := expression.GreaterThanEqual(
		expression.Name("stock"),
		expression.Value(quantity),
	).And(expression.AttributeExists(expression.Name("product_id")))

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(condition).
		Build()
	if err != nil {
		return 0, err
	}

	var remaining int
	err = withRetry(ctx, func() error {
		result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"product_id": &types.AttributeValueMemberS{Value: productID},
			},
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ReturnValues:              types.ReturnValueAllNew,
		})
		if err != nil {
			var ccf *types.ConditionalCheckFailedException
			if errors.As(err, &ccf) {
				return ErrInsufficientStock
			}
			return fmt.Errorf("failed to decrement stock: %w", err)
		}

		var updated domain.Product
		if err := attributevalue.UnmarshalMap(result.Attributes, &updated); err != nil {
			return err
		}
		remaining = updated.Stock
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// IncrementStock restores stock released by a failed or rolled-back
// order. The item must exist; a missing product surfaces as ErrNotFound.
func (r *ProductRepository) IncrementStock(ctx context.Context, productID string, quantity int) error {
	update := expression.Set(
		expression.Name("stock"),
		expression.Plus(
			expression.Name("stock"),
			expression.Value(quantity),
		),
	).Set(
		expression.Name("updated_at"),
		expression.Value(time.Now().UTC()),
	)

	condition := expression.AttributeExists(expression.Name("product_id"))

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(condition).
		Build()
	if err != nil {
		return err
	}

	return withRetry(ctx, func() error {
		_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"product_id": &types.AttributeValueMemberS{Value: productID},
			},
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
		})
		if err != nil {
			var ccf *types.ConditionalCheckFailedException
			if errors.As(err, &ccf) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to increment stock: %w", err)
		}
		return nil
	})
}

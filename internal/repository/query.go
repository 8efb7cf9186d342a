package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/Miguelburitica/serverless-localMarket/internal/query"
)

// queryItems executes a planner-produced plan against one table. Index
// plans run as a GSI Query ordered ascending by the index sort key; scan
// plans page through the whole table and apply the plan's compound
// predicate in memory via attr.
func queryItems[T any](ctx context.Context, client *dynamodb.Client, table string, plan query.Plan, attr func(*T, string) string) ([]T, error) {
	var items []T
	err := withRetry(ctx, func() error {
		var err error
		if plan.IsScan() {
			items, err = scanItems(ctx, client, table, plan, attr)
		} else {
			items, err = queryIndex[T](ctx, client, table, plan)
		}
		return err
	})
	return items, err
}

func queryIndex[T any](ctx context.Context, client *dynamodb.Client, table string, plan query.Plan) ([]T, error) {
	keyCond := expression.Key(plan.Index.Field).Equal(expression.Value(plan.Key))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	var items []T
	paginator := dynamodb.NewQueryPaginator(client, &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		IndexName:                 aws.String(plan.Index.Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query index %s: %w", plan.Index.Name, err)
		}
		var batch []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		items = append(items, batch...)
	}
	return items, nil
}

func scanItems[T any](ctx context.Context, client *dynamodb.Client, table string, plan query.Plan, attr func(*T, string) string) ([]T, error) {
	var items []T
	paginator := dynamodb.NewScanPaginator(client, &dynamodb.ScanInput{
		TableName: aws.String(table),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table %s: %w", table, err)
		}
		var batch []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		for i := range batch {
			item := batch[i]
			if plan.Matches(func(field string) string { return attr(&item, field) }) {
				items = append(items, item)
			}
		}
	}
	return items, nil
}

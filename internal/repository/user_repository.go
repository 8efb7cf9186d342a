package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Miguelburitica/serverless-localMarket/internal/domain"
	"github.com/Miguelburitica/serverless-localMarket/internal/query"
)

// UserRepository reads user records created by the auth provider at
// registration. This service never writes users.
type UserRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepository(client *dynamodb.Client, tableName string) *UserRepository {
	return &UserRepository{
		client:    client,
		tableName: tableName,
	}
}

var userIndexes = []query.Index{
	{Name: "email-index", Field: "email", SortField: "created_at"},
}

func (r *UserRepository) Get(ctx context.Context, userID string) (*domain.User, error) {
	var user *domain.User
	err := withRetry(ctx, func() error {
		result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"user_id": &types.AttributeValueMemberS{Value: userID},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to get item: %w", err)
		}
		if result.Item == nil {
			return ErrNotFound
		}
		user = &domain.User{}
		return attributevalue.UnmarshalMap(result.Item, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByEmail resolves a user through the email secondary index. Emails
// are unique, so the first match wins.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	plan := query.Build(userIndexes, map[string]string{"email": email})
	users, err := queryItems(ctx, r.client, r.tableName, plan, userAttr)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return &users[0], nil
}

func userAttr(u *domain.User, field string) string {
	switch field {
	case "email":
		return u.Email
	case "role":
		return string(u.Role)
	}
	return ""
}

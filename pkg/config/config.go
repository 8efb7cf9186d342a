package config

import (
	"github.com/kelseyhightower/envconfig"

	pkgtls "github.com/Miguelburitica/serverless-localMarket/pkg/tls"
)

type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	AWSRegion string `envconfig:"AWS_REGION" default:"us-east-1"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// DynamoEndpoint switches the DynamoDB client to a local endpoint
	// (dynamodb-local / LocalStack). Empty means real AWS.
	DynamoEndpoint string `envconfig:"DYNAMO_ENDPOINT" default:""`

	ProductTableName string `envconfig:"PRODUCT_TABLE_NAME" default:"products-table"`
	MarketTableName  string `envconfig:"MARKET_TABLE_NAME" default:"markets-table"`
	UserTableName    string `envconfig:"USER_TABLE_NAME" default:"users-table"`
	OrderTableName   string `envconfig:"ORDER_TABLE_NAME" default:"orders-table"`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS" default:""`
	EventTopic   string `envconfig:"EVENT_TOPIC" default:"market-events"`

	// Remaining stock at or below this triggers a stock.low notification.
	LowStockThreshold int `envconfig:"LOW_STOCK_THRESHOLD" default:"5"`

	TLS pkgtls.Config
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package domain

import (
	"time"
)

type Market struct {
	MarketID  string    `dynamodbav:"market_id" json:"market_id"`
	Name      string    `dynamodbav:"name"      json:"name"`
	City      string    `dynamodbav:"city"      json:"city"`
	Schedule  Schedule  `dynamodbav:"schedule"  json:"schedule"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
}

// Schedule describes when a market is open. Days use lowercase English
// names ("saturday"), hours are HH:MM in the market's local time.
type Schedule struct {
	Days   []string `dynamodbav:"days"   json:"days"`
	Opens  string   `dynamodbav:"opens"  json:"opens"`
	Closes string   `dynamodbav:"closes" json:"closes"`
}

package models

import "time"

type Prediction struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	AssetID     int64     `json:"asset_id"`
	Direction   string    `json:"direction"`
	TargetPrice *float64  `json:"target_price,omitempty"`
	Rationale   *string   `json:"rationale,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PredictionVote struct {
	PredictionID int64     `json:"prediction_id"`
	UserID       int64     `json:"user_id"`
	Value        int       `json:"value"`
	CreatedAt    time.Time `json:"created_at"`
}

type PredictionSummary struct {
	Prediction
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

package models

import "time"

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Asset struct {
	ID         int64     `json:"id"`
	Symbol     string    `json:"symbol"`
	Name       string    `json:"name"`
	CategoryID *int64    `json:"category_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type WatchlistItem struct {
	UserID    int64     `json:"user_id"`
	AssetID   int64     `json:"asset_id"`
	CreatedAt time.Time `json:"created_at"`
}

type TrendingAsset struct {
	Asset
	TrendScore int `json:"trend_score"`
	VoteTotal  int `json:"vote_total"`
}

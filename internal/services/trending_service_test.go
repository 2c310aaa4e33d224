package services

import (
	"context"
	"testing"

	"github.com/subbu1904/CoinTrackBack/internal/models"
)

type stubAssetLister struct {
	assets     []models.Asset
	watchlist  []models.Asset
	voteTotals map[int64]int
}

func (s *stubAssetLister) List(_ context.Context, _ *int64) ([]models.Asset, error) {
	return s.assets, nil
}

func (s *stubAssetLister) ListWatchlist(_ context.Context, _ int64) ([]models.Asset, error) {
	return s.watchlist, nil
}

func (s *stubAssetLister) VoteTotalsByAsset(_ context.Context) (map[int64]int, error) {
	return s.voteTotals, nil
}

func buildTrendAsset(id int64, symbol string, categoryID *int64) models.Asset {
	return models.Asset{ID: id, Symbol: symbol, Name: symbol, CategoryID: categoryID}
}

func TestGetTrendingAssetsRanksByScore(t *testing.T) {
	layer1 := int64(1)
	memes := int64(2)
	service := NewTrendingService(&stubAssetLister{
		assets: []models.Asset{
			buildTrendAsset(10, "BTC", &layer1),
			buildTrendAsset(11, "ETH", &layer1),
			buildTrendAsset(12, "DOGE", &memes),
		},
		watchlist: []models.Asset{
			buildTrendAsset(11, "ETH", &layer1),
		},
		voteTotals: map[int64]int{
			10: 4,
			12: 2,
		},
	})

	trending, err := service.GetTrendingAssets(context.Background(), 42, 10)
	if err != nil {
		t.Fatalf("GetTrendingAssets: %v", err)
	}

	if len(trending) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(trending))
	}
	// BTC: 4 votes * 10 + watched category = 55.
	if trending[0].Symbol != "BTC" || trending[0].TrendScore != 55 {
		t.Fatalf("expected BTC with score 55 first, got %s with %d", trending[0].Symbol, trending[0].TrendScore)
	}
	// ETH: no votes, watched asset + watched category = 45.
	if trending[1].Symbol != "ETH" || trending[1].TrendScore != 45 {
		t.Fatalf("expected ETH with score 45 second, got %s with %d", trending[1].Symbol, trending[1].TrendScore)
	}
	// DOGE: 2 votes * 10, nothing watched = 20.
	if trending[2].Symbol != "DOGE" || trending[2].TrendScore != 20 {
		t.Fatalf("expected DOGE with score 20 third, got %s with %d", trending[2].Symbol, trending[2].TrendScore)
	}
	if trending[0].VoteTotal != 4 || trending[2].VoteTotal != 2 {
		t.Fatalf("unexpected vote totals: %d %d", trending[0].VoteTotal, trending[2].VoteTotal)
	}
}

func TestGetTrendingAssetsBreaksTiesBySymbol(t *testing.T) {
	service := NewTrendingService(&stubAssetLister{
		assets: []models.Asset{
			buildTrendAsset(20, "SOL", nil),
			buildTrendAsset(21, "ADA", nil),
		},
		voteTotals: map[int64]int{},
	})

	trending, err := service.GetTrendingAssets(context.Background(), 42, 10)
	if err != nil {
		t.Fatalf("GetTrendingAssets: %v", err)
	}

	if trending[0].Symbol != "ADA" || trending[1].Symbol != "SOL" {
		t.Fatalf("expected alphabetical tie-break, got %s then %s", trending[0].Symbol, trending[1].Symbol)
	}
}

func TestGetTrendingAssetsAppliesLimit(t *testing.T) {
	service := NewTrendingService(&stubAssetLister{
		assets: []models.Asset{
			buildTrendAsset(30, "BTC", nil),
			buildTrendAsset(31, "ETH", nil),
			buildTrendAsset(32, "XRP", nil),
		},
		voteTotals: map[int64]int{30: 5, 31: 3, 32: 1},
	})

	trending, err := service.GetTrendingAssets(context.Background(), 42, 2)
	if err != nil {
		t.Fatalf("GetTrendingAssets: %v", err)
	}
	if len(trending) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(trending))
	}
	if trending[0].Symbol != "BTC" || trending[1].Symbol != "ETH" {
		t.Fatalf("unexpected top assets: %s %s", trending[0].Symbol, trending[1].Symbol)
	}
}

func TestGetTrendingAssetsNegativeVotesDoNotScore(t *testing.T) {
	service := NewTrendingService(&stubAssetLister{
		assets: []models.Asset{
			buildTrendAsset(40, "LUNA", nil),
			buildTrendAsset(41, "BTC", nil),
		},
		voteTotals: map[int64]int{40: -6, 41: 1},
	})

	trending, err := service.GetTrendingAssets(context.Background(), 42, 10)
	if err != nil {
		t.Fatalf("GetTrendingAssets: %v", err)
	}

	if trending[0].Symbol != "BTC" {
		t.Fatalf("expected BTC first, got %s", trending[0].Symbol)
	}
	if trending[1].Symbol != "LUNA" || trending[1].TrendScore != 0 {
		t.Fatalf("expected LUNA with score 0, got %s with %d", trending[1].Symbol, trending[1].TrendScore)
	}
}

package services

import (
	"context"
	"sort"

	"github.com/subbu1904/CoinTrackBack/internal/models"
)

type AssetLister interface {
	List(ctx context.Context, categoryID *int64) ([]models.Asset, error)
	ListWatchlist(ctx context.Context, userID int64) ([]models.Asset, error)
	VoteTotalsByAsset(ctx context.Context) (map[int64]int, error)
}

type TrendingService struct {
	assetRepo AssetLister
}

func NewTrendingService(assetRepo AssetLister) *TrendingService {
	return &TrendingService{assetRepo: assetRepo}
}

// GetTrendingAssets ranks every asset by live prediction votes, boosted when
// the asset shares a category with the caller's watchlist. Ties break by
// higher vote total, then symbol.
func (s *TrendingService) GetTrendingAssets(
	ctx context.Context,
	actorID int64,
	limit int,
) ([]models.TrendingAsset, error) {
	assets, err := s.assetRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	voteTotals, err := s.assetRepo.VoteTotalsByAsset(ctx)
	if err != nil {
		return nil, err
	}

	watchlist, err := s.assetRepo.ListWatchlist(ctx, actorID)
	if err != nil {
		return nil, err
	}

	watchedAssets := make(map[int64]struct{}, len(watchlist))
	watchedCategories := make(map[int64]struct{})
	for _, item := range watchlist {
		watchedAssets[item.ID] = struct{}{}
		if item.CategoryID != nil {
			watchedCategories[*item.CategoryID] = struct{}{}
		}
	}

	trending := make([]models.TrendingAsset, 0, len(assets))
	for _, asset := range assets {
		trending = append(trending, models.TrendingAsset{
			Asset:      asset,
			TrendScore: calculateTrendScore(&asset, voteTotals, watchedAssets, watchedCategories),
			VoteTotal:  voteTotals[asset.ID],
		})
	}

	sort.SliceStable(trending, func(i, j int) bool {
		if trending[i].TrendScore == trending[j].TrendScore {
			if trending[i].VoteTotal == trending[j].VoteTotal {
				return trending[i].Symbol < trending[j].Symbol
			}
			return trending[i].VoteTotal > trending[j].VoteTotal
		}
		return trending[i].TrendScore > trending[j].TrendScore
	})

	if limit > 0 && len(trending) > limit {
		trending = trending[:limit]
	}

	return trending, nil
}

func calculateTrendScore(
	asset *models.Asset,
	voteTotals map[int64]int,
	watchedAssets map[int64]struct{},
	watchedCategories map[int64]struct{},
) int {
	score := 0

	if total := voteTotals[asset.ID]; total > 0 {
		score += total * 10
	}
	if _, ok := watchedAssets[asset.ID]; ok {
		score += 30
	}
	if asset.CategoryID != nil {
		if _, ok := watchedCategories[*asset.CategoryID]; ok {
			score += 15
		}
	}

	return score
}

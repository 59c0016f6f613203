package service

import (
	"context"
	"strings"

	"srefhub/internal/models"
	"srefhub/internal/repository"
)

type LeaderboardService struct {
	repo repository.LeaderboardRepository
}

func NewLeaderboardService(repo repository.LeaderboardRepository) *LeaderboardService {
	return &LeaderboardService{repo: repo}
}

// Contributors ranks users by style count ("styles", the default) or by
// likes received ("likes").
func (s *LeaderboardService) Contributors(ctx context.Context, sort string, limit int) ([]models.LeaderboardEntry, error) {
	by := repository.ByStyles
	if strings.EqualFold(strings.TrimSpace(sort), string(repository.ByLikes)) {
		by = repository.ByLikes
	}
	entries, err := s.repo.Contributors(ctx, by, clampPage(limit, 10, 100))
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	return entries, nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

const (
	leaderboardKey  = "judge:leaderboard"
	acceptedMarkKey = "judge:accepted:%d:%d"

	// Accepted markers outlive any realistic rejudge window.
	acceptedMarkTTL = 90 * 24 * time.Hour
)

// RankingService maintains the global leaderboard as a Redis sorted set
// keyed by user ID. A user scores a problem at most once: the first
// accepted submission sets a marker and later accepts for the same
// problem leave the leaderboard untouched.
type RankingService interface {
	RecordAccepted(ctx context.Context, userID, problemID uint64, score float64) error
}

type RedisRankingService struct {
	rdb redis.Cmdable
	log loggerv2.Logger
}

var _ RankingService = (*RedisRankingService)(nil)

func NewRedisRankingService(rdb redis.Cmdable, log loggerv2.Logger) *RedisRankingService {
	return &RedisRankingService{
		rdb: rdb,
		log: log,
	}
}

func (s *RedisRankingService) RecordAccepted(ctx context.Context, userID, problemID uint64, score float64) error {
	mark := fmt.Sprintf(acceptedMarkKey, userID, problemID)
	first, err := s.rdb.SetNX(ctx, mark, 1, acceptedMarkTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to set accepted marker: %w", err)
	}
	if !first {
		return nil
	}

	err = s.rdb.ZIncrBy(ctx, leaderboardKey, score, fmt.Sprintf("%d", userID)).Err()
	if err != nil {
		return fmt.Errorf("failed to update leaderboard: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

func TestRecordAcceptedScoresOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := NewRedisRankingService(rdb, loggerv2.GetGlobalLogger())
	ctx := context.Background()

	if err := svc.RecordAccepted(ctx, 100, 1, 100); err != nil {
		t.Fatalf("RecordAccepted error: %v", err)
	}
	// Second accept for the same problem must not score again.
	if err := svc.RecordAccepted(ctx, 100, 1, 100); err != nil {
		t.Fatalf("RecordAccepted error: %v", err)
	}
	if err := svc.RecordAccepted(ctx, 100, 2, 50); err != nil {
		t.Fatalf("RecordAccepted error: %v", err)
	}

	score, err := rdb.ZScore(ctx, leaderboardKey, "100").Result()
	if err != nil {
		t.Fatalf("zscore: %v", err)
	}
	if score != 150 {
		t.Errorf("leaderboard score = %v, want 150", score)
	}
}

func TestRecordAcceptedSeparateUsers(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := NewRedisRankingService(rdb, loggerv2.GetGlobalLogger())
	ctx := context.Background()

	if err := svc.RecordAccepted(ctx, 1, 7, 100); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordAccepted(ctx, 2, 7, 60); err != nil {
		t.Fatal(err)
	}

	users, err := rdb.ZRevRange(ctx, leaderboardKey, 0, -1).Result()
	if err != nil {
		t.Fatalf("zrevrange: %v", err)
	}
	if len(users) != 2 || users[0] != "1" {
		t.Errorf("ranking = %v, want user 1 first", users)
	}
}

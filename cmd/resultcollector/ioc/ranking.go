package ioc

import (
	"github.com/redis/go-redis/v9"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"

	"github.com/edplatform/judge_engine/cmd/resultcollector/service"
)

func InitRankingService(rdb redis.Cmdable, log loggerv2.Logger) service.RankingService {
	return service.NewRedisRankingService(rdb, log)
}

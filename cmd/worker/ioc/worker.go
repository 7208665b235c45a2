package ioc

import (
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"gorm.io/gorm"

	"github.com/edplatform/judge_engine/cmd/worker/config"
	"github.com/edplatform/judge_engine/cmd/worker/service"
	"github.com/edplatform/judge_engine/event"
	"github.com/edplatform/judge_engine/executor"
)

func InitJudgeWorkerService(l loggerv2.Logger, db *gorm.DB, rdb redis.Cmdable, producer event.Producer, judger executor.Judger) *service.JudgeService {
	var cfg config.JudgeWorkerConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal worker config failed, err: %v", err)
	}

	return service.NewJudgeService(l, db, rdb, producer, judger, cfg.TestcasePathPrefix, cfg.XAutoClaimTimeoutMinutes)
}

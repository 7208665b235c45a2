//go:build wireinject

package main

import (
	"github.com/google/wire"

	iocself "github.com/edplatform/judge_engine/cmd/worker/ioc"
	"github.com/edplatform/judge_engine/cmd/worker/service"
	"github.com/edplatform/judge_engine/event"
	"github.com/edplatform/judge_engine/ioc"
)

func BuildDependency() *service.JudgeService {
	wire.Build(
		ioc.InitLogger,
		ioc.InitDB,
		ioc.InitRedis,
		ioc.InitKafka,
		ioc.InitSyncProducer,
		event.NewSaramaProducer,
		ioc.InitJudgeConfig,
		ioc.InitRegistry,
		ioc.InitResolver,
		ioc.InitValidator,
		ioc.InitJudger,
		iocself.InitJudgeWorkerService,
	)
	return nil
}

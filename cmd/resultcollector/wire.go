//go:build wireinject

package main

import (
	"github.com/google/wire"

	iocself "github.com/edplatform/judge_engine/cmd/resultcollector/ioc"
	"github.com/edplatform/judge_engine/cmd/resultcollector/service"
	"github.com/edplatform/judge_engine/ioc"
)

func BuildDependency() *service.ResultCollectorService {
	wire.Build(
		ioc.InitLogger,
		ioc.InitDB,
		ioc.InitKafka,
		iocself.InitResultCollectorConsumerGroup,
		ioc.InitRedis,
		iocself.InitRankingService,
		service.NewResultCollectorService,
	)
	return nil
}

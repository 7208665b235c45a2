//go:build wireinject

package main

import (
	"github.com/google/wire"

	iocself "github.com/edplatform/judge_engine/cmd/master/ioc"
	"github.com/edplatform/judge_engine/cmd/master/service"
	"github.com/edplatform/judge_engine/ioc"
)

func BuildDependency() *service.SubmissionService {
	wire.Build(
		ioc.InitLogger,
		ioc.InitDB,
		ioc.InitRedis,
		ioc.InitKafka,
		iocself.InitJudgeMasterConsumerGroup,
		iocself.InitLRUCache,
		service.NewSubmissionService,
	)
	return nil
}

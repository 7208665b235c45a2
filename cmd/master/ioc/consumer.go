package ioc

import (
	"github.com/IBM/sarama"

	"github.com/edplatform/judge_engine/cmd/master/service"
	"github.com/edplatform/judge_engine/ioc"
)

func InitJudgeMasterConsumerGroup(client sarama.Client) sarama.ConsumerGroup {
	return ioc.InitConsumerGroup(client, service.JudgeMasterSubmissionGroupID)
}

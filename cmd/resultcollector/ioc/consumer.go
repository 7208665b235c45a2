package ioc

import (
	"github.com/IBM/sarama"

	"github.com/edplatform/judge_engine/cmd/resultcollector/service"
	"github.com/edplatform/judge_engine/ioc"
)

func InitResultCollectorConsumerGroup(client sarama.Client) sarama.ConsumerGroup {
	return ioc.InitConsumerGroup(client, service.ResultCollectorGroupID)
}

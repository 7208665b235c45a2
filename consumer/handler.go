package consumer

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// MessageHandler processes one claimed message. A returned error is
// logged; the message is marked regardless, so handlers own their own
// retries for work that must not be lost.
type MessageHandler func(ctx context.Context, msg *sarama.ConsumerMessage) error

type GroupHandler struct {
	handler MessageHandler
	log     loggerv2.Logger
}

func NewGroupHandler(handler MessageHandler, log loggerv2.Logger) sarama.ConsumerGroupHandler {
	return &GroupHandler{handler: handler, log: log}
}

func (h *GroupHandler) Setup(session sarama.ConsumerGroupSession) error {
	h.log.InfoContext(session.Context(), "consumer session setup",
		logger.String("claims", fmt.Sprintf("%v", session.Claims())))
	return nil
}

func (h *GroupHandler) Cleanup(session sarama.ConsumerGroupSession) error {
	h.log.InfoContext(session.Context(), "consumer session cleanup")
	return nil
}

func (h *GroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.handler(session.Context(), msg); err != nil {
			h.log.ErrorContext(session.Context(), "message handling failed",
				logger.Error(err),
				logger.Any("partition", msg.Partition),
				logger.Any("offset", msg.Offset))
		}
		session.MarkMessage(msg, "")
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/pkg404/cachex/lru"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"gorm.io/gorm"

	"github.com/edplatform/judge_engine/constants"
	"github.com/edplatform/judge_engine/consumer"
	"github.com/edplatform/judge_engine/event"
	"github.com/edplatform/judge_engine/model"
)

const (
	JudgeMasterSubmissionGroupID = "judge_master_group"

	problemKey = "problem:%d"
)

// SubmissionService consumes submission-created events, resolves the
// submission and its problem's limit overrides, and enqueues a judge
// task on the Redis stream. Problem rows are LRU-cached: limits change
// rarely but are read on every submission.
type SubmissionService struct {
	log      loggerv2.Logger
	consumer consumer.Consumer
	rdb      redis.Cmdable
	db       *gorm.DB
	lru      *lru.Cache
}

var _ consumer.Consumer = (*SubmissionService)(nil)

// submissionEvent is the intake payload from the application layer.
type submissionEvent struct {
	SubmissionID uint64 `json:"submission_id"`
}

func NewSubmissionService(log loggerv2.Logger, cg sarama.ConsumerGroup, rdb redis.Cmdable, db *gorm.DB, lru *lru.Cache) *SubmissionService {
	s := &SubmissionService{
		log: log,
		rdb: rdb,
		lru: lru,
		db:  db,
	}
	handler := consumer.NewGroupHandler(s.handleSubmission, log)
	s.consumer = consumer.NewSaramaConsumer(cg, constants.SubmissionTopic, handler, log)
	return s
}

func (s *SubmissionService) Start(ctx context.Context) error {
	return s.consumer.Start(ctx)
}

func (s *SubmissionService) handleSubmission(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev submissionEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("failed to unmarshal submission event: %w", err)
	}

	var submission model.Submission
	err := s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ?", ev.SubmissionID).
		Select("id", "problem_id", "code", "language").
		First(&submission).Error
	if err != nil {
		return fmt.Errorf("failed to get submission: %w", err)
	}

	var problem model.Problem
	lruKey := fmt.Sprintf(problemKey, submission.ProblemID)
	if problemAny, ok := s.lru.Get(lruKey); ok {
		problem = problemAny.(model.Problem)
	} else {
		err = s.db.WithContext(ctx).Model(&model.Problem{}).
			Where("id = ?", submission.ProblemID).
			Select("id", "time_limit", "memory_limit", "testdata_dir").
			First(&problem).Error
		if err != nil {
			return fmt.Errorf("failed to get problem: %w", err)
		}
		s.lru.Add(lruKey, problem)
	}

	task := &event.JudgeTaskMessage{
		SubmissionID: submission.ID,
		ProblemID:    submission.ProblemID,
		Code:         submission.Code,
		Language:     submission.Language,
		TimeLimit:    problem.TimeLimit,
		MemoryLimit:  problem.MemoryLimit,
	}
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal judge task: %w", err)
	}

	// PENDING -> JUDGING happens here; the result collector writes the
	// terminal state. JUDGING is never re-entered for a submission.
	err = s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ? AND status = ?", submission.ID, model.VerdictPending).
		Update("status", model.VerdictJudging).Error
	if err != nil {
		return fmt.Errorf("failed to mark submission judging: %w", err)
	}

	err = s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: constants.JudgeTaskStream,
		Values: map[string]any{
			"task": taskBytes,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add judge task to stream: %w", err)
	}

	s.log.InfoContext(ctx, "enqueued judge task",
		logger.Uint64("submission_id", submission.ID),
		logger.Uint64("problem_id", submission.ProblemID))
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/pkg404/gotools/retry"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"gorm.io/gorm"

	"github.com/edplatform/judge_engine/casestore"
	"github.com/edplatform/judge_engine/constants"
	"github.com/edplatform/judge_engine/event"
	"github.com/edplatform/judge_engine/executor"
	"github.com/edplatform/judge_engine/executor/service"
	"github.com/edplatform/judge_engine/model"
)

const groupName = "judge_worker_group"

var (
	judgeDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edplatform_judge",
		Subsystem: "worker",
		Name:      "judge_duration_seconds",
		Help:      "Duration of full submission judging in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"language"})

	judgeVerdictTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edplatform_judge",
		Subsystem: "worker",
		Name:      "verdict_total",
		Help:      "Total judged submissions by terminal verdict.",
	}, []string{"verdict"})
)

func init() {
	prometheus.MustRegister(judgeDurationSeconds, judgeVerdictTotal)
}

// JudgeService consumes judge tasks from the Redis stream, runs them
// through the engine, and publishes verdict events to Kafka. Each
// message is acknowledged only after its verdict has been published;
// abandoned pending messages are reclaimed via XAutoClaim.
type JudgeService struct {
	log              loggerv2.Logger
	rdb              redis.Cmdable
	producer         event.Producer
	judger           executor.Judger
	cases            TestCaseSource
	consumerName     string
	autoClaimMinIdle time.Duration
}

// TestCaseSource yields the ordered test cases for a problem.
type TestCaseSource interface {
	Load(ctx context.Context, problemID uint64) ([]model.TestCase, error)
}

// dbCaseSource prefers database-stored test cases and falls back to the
// problem's on-disk testdata directory.
type dbCaseSource struct {
	db    *gorm.DB
	files *casestore.Store
}

func (s *dbCaseSource) Load(ctx context.Context, problemID uint64) ([]model.TestCase, error) {
	var testCases []model.TestCase
	err := s.db.WithContext(ctx).Model(&model.TestCase{}).
		Where("problem_id = ?", problemID).
		Order("position").
		Find(&testCases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load test cases: %w", err)
	}
	if len(testCases) > 0 {
		return testCases, nil
	}
	cases, err := s.files.Load(problemID)
	if err != nil {
		return nil, fmt.Errorf("no test cases for problem %d: %w", problemID, err)
	}
	return cases, nil
}

func NewJudgeService(log loggerv2.Logger, db *gorm.DB, rdb redis.Cmdable, producer event.Producer, judger executor.Judger, testcasePathPrefix string, xAutoClaimTimeoutMinutes int) *JudgeService {
	hostname, err := os.Hostname()
	if err != nil {
		log.Error("failed to get hostname", logger.Error(err))
		panic(err)
	}
	if xAutoClaimTimeoutMinutes <= 0 {
		xAutoClaimTimeoutMinutes = 5
	}
	return &JudgeService{
		log:              log,
		rdb:              rdb,
		producer:         producer,
		judger:           judger,
		cases:            &dbCaseSource{db: db, files: casestore.NewStore(testcasePathPrefix)},
		consumerName:     fmt.Sprintf("%s-%d", hostname, time.Now().UnixNano()),
		autoClaimMinIdle: time.Duration(xAutoClaimTimeoutMinutes) * time.Minute,
	}
}

func (s *JudgeService) Start(ctx context.Context) error {
	s.log.InfoContext(ctx, "starting judge worker",
		logger.String("group", groupName),
		logger.String("consumer", s.consumerName))

	err := s.rdb.XGroupCreateMkStream(ctx, constants.JudgeTaskStream, groupName, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	claimTicker := time.NewTicker(s.autoClaimMinIdle)
	defer claimTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-claimTicker.C:
			s.claimAbandoned(ctx)
		default:
			streamMsg, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    groupName,
				Consumer: s.consumerName,
				Streams:  []string{constants.JudgeTaskStream, ">"},
				Count:    1,
				Block:    time.Second,
			}).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.log.ErrorContext(ctx, "failed to read stream message", logger.Error(err))
				time.Sleep(100 * time.Millisecond)
				continue
			}

			for _, stream := range streamMsg {
				for _, msg := range stream.Messages {
					if err = s.processMessage(ctx, &msg); err != nil {
						s.log.ErrorContext(ctx, "failed to process message",
							logger.String("id", msg.ID), logger.Error(err))
					}
				}
			}
		}
	}
}

// claimAbandoned takes over pending messages whose consumer died
// mid-judge.
func (s *JudgeService) claimAbandoned(ctx context.Context) {
	claimed, _, err := s.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   constants.JudgeTaskStream,
		Group:    groupName,
		Consumer: s.consumerName,
		MinIdle:  s.autoClaimMinIdle,
		Start:    "0",
		Count:    10,
	}).Result()
	if err != nil {
		s.log.ErrorContext(ctx, "xautoclaim failed", logger.Error(err))
		return
	}
	for _, msg := range claimed {
		if err = s.processMessage(ctx, &msg); err != nil {
			s.log.ErrorContext(ctx, "failed to process reclaimed message",
				logger.String("id", msg.ID), logger.Error(err))
		}
	}
}

func (s *JudgeService) processMessage(ctx context.Context, msg *redis.XMessage) error {
	raw, ok := msg.Values["task"].(string)
	if !ok {
		return fmt.Errorf("task field missing or not a string")
	}

	var task event.JudgeTaskMessage
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return fmt.Errorf("failed to unmarshal task: %w", err)
	}

	if err := s.handleJudgeTask(ctx, &task); err != nil {
		// Infrastructure failures stay pending so another worker (or a
		// recovered backend) can retry; everything else is terminal.
		if errors.Is(err, service.ErrUnavailable) {
			return fmt.Errorf("judge unavailable, leaving task pending: %w", err)
		}
		return fmt.Errorf("failed to handle judge task: %w", err)
	}

	if err := retry.Do(ctx, func() error {
		return s.rdb.XAck(ctx, constants.JudgeTaskStream, groupName, msg.ID).Err()
	}); err != nil {
		return fmt.Errorf("failed to ack message: %w", err)
	}
	return nil
}

func (s *JudgeService) handleJudgeTask(ctx context.Context, task *event.JudgeTaskMessage) error {
	testCases, err := s.cases.Load(ctx, task.ProblemID)
	if err != nil {
		return err
	}

	req := &executor.JudgeRequest{
		SubmissionID:        task.SubmissionID,
		ProblemID:           task.ProblemID,
		SourceCode:          task.Code,
		Language:            task.Language,
		TestCases:           testCases,
		TimeLimitOverride:   task.TimeLimit,
		MemoryLimitOverride: task.MemoryLimit,
	}

	start := time.Now()
	verdict, err := s.judger.Judge(ctx, req)

	var rejection *executor.ValidationError
	switch {
	case errors.As(err, &rejection):
		// Rejected before anything executed.
		return s.publishVerdict(ctx, &event.VerdictEvent{
			SubmissionID:    task.SubmissionID,
			ProblemID:       task.ProblemID,
			Status:          string(model.VerdictError),
			TotalTests:      len(testCases),
			RejectionReason: rejection.Reason,
		})
	case err != nil:
		return err
	}

	judgeDurationSeconds.WithLabelValues(task.Language).Observe(time.Since(start).Seconds())
	judgeVerdictTotal.WithLabelValues(string(verdict.Status)).Inc()

	ev := &event.VerdictEvent{
		SubmissionID:     task.SubmissionID,
		ProblemID:        task.ProblemID,
		Status:           string(verdict.Status),
		Score:            verdict.Score,
		PassedTests:      verdict.PassedTests,
		TotalTests:       verdict.TotalTests,
		MaxTime:          verdict.MaxTime.Seconds(),
		CompilationError: verdict.CompilationError,
	}
	for _, tr := range verdict.TestResults {
		ev.TestResults = append(ev.TestResults, event.TestCaseOutcome{
			TestCaseID:    tr.TestCaseID,
			Position:      tr.Position,
			Status:        string(tr.Status),
			ExecutionTime: tr.ExecutionTime.Seconds(),
			ActualOutput:  tr.ActualOutput,
			Error:         tr.Error,
			Points:        tr.Points,
		})
	}
	return s.publishVerdict(ctx, ev)
}

func (s *JudgeService) publishVerdict(ctx context.Context, ev *event.VerdictEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict event: %w", err)
	}
	if err = retry.Do(ctx, func() error {
		_, _, err := s.producer.Produce(ctx, &sarama.ProducerMessage{
			Topic: constants.JudgeResultTopic,
			Key:   sarama.StringEncoder(fmt.Sprintf("%d", ev.SubmissionID)),
			Value: sarama.ByteEncoder(payload),
		})
		return err
	}); err != nil {
		return fmt.Errorf("failed to publish verdict: %w", err)
	}
	return nil
}

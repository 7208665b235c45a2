package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/to404hanga/pkg404/gotools/retry"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"gorm.io/gorm"

	"github.com/edplatform/judge_engine/constants"
	"github.com/edplatform/judge_engine/consumer"
	"github.com/edplatform/judge_engine/event"
	"github.com/edplatform/judge_engine/model"
)

const (
	ResultCollectorGroupID = "result_collector_group"
)

var (
	resultCollectorHandleInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "edplatform_judge",
		Subsystem: "resultcollector",
		Name:      "handle_verdict_in_flight",
		Help:      "Current number of in-flight handleVerdict operations.",
	})

	resultCollectorHandleTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edplatform_judge",
		Subsystem: "resultcollector",
		Name:      "handle_verdict_total",
		Help:      "Total number of handleVerdict operations.",
	}, []string{"result", "reason"})

	resultCollectorHandleDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edplatform_judge",
		Subsystem: "resultcollector",
		Name:      "handle_verdict_duration_seconds",
		Help:      "Duration of handleVerdict operations in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 16),
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		resultCollectorHandleInFlight,
		resultCollectorHandleTotal,
		resultCollectorHandleDurationSeconds,
	)
}

// ResultCollectorService consumes verdict events, persists the terminal
// submission state together with the per-test-case rows, and feeds the
// leaderboard on accepted verdicts.
type ResultCollectorService struct {
	log        loggerv2.Logger
	db         *gorm.DB
	consumer   consumer.Consumer
	rankingSvc RankingService
}

func NewResultCollectorService(log loggerv2.Logger, cg sarama.ConsumerGroup, db *gorm.DB, rankingSvc RankingService) *ResultCollectorService {
	s := &ResultCollectorService{
		log:        log,
		db:         db,
		rankingSvc: rankingSvc,
	}
	handler := consumer.NewGroupHandler(s.handleVerdict, log)
	s.consumer = consumer.NewSaramaConsumer(cg, constants.JudgeResultTopic, handler, log)
	return s
}

func (s *ResultCollectorService) Start(ctx context.Context) error {
	return s.consumer.Start(ctx)
}

func (s *ResultCollectorService) handleVerdict(ctx context.Context, msg *sarama.ConsumerMessage) (err error) {
	opStartTime := time.Now()
	result := "success"
	reason := "ok"

	resultCollectorHandleInFlight.Inc()
	defer func() {
		resultCollectorHandleInFlight.Dec()
		resultCollectorHandleTotal.WithLabelValues(result, reason).Inc()
		resultCollectorHandleDurationSeconds.WithLabelValues(result).Observe(time.Since(opStartTime).Seconds())
	}()

	var verdict event.VerdictEvent
	err = json.Unmarshal(msg.Value, &verdict)
	if err != nil {
		result = "error"
		reason = "unmarshal_verdict"
		s.log.ErrorContext(ctx, "failed to unmarshal verdict event", logger.Error(err))
		return fmt.Errorf("failed to unmarshal verdict event: %w", err)
	}

	if !model.Verdict(verdict.Status).Terminal() {
		result = "error"
		reason = "non_terminal_status"
		return fmt.Errorf("verdict event carries non-terminal status %q", verdict.Status)
	}

	collectorCtx := loggerv2.ContextWithFields(ctx, logger.Uint64("submission_id", verdict.SubmissionID))

	err = retry.Do(collectorCtx, func() error {
		errInternal := s.persistVerdict(collectorCtx, &verdict)
		if errInternal != nil {
			s.log.ErrorContext(collectorCtx, "failed to persist verdict", logger.Error(errInternal))
			return errInternal
		}
		return nil
	}, retry.WithBaseInterval(time.Second))
	if err != nil {
		result = "error"
		reason = "db_persist_verdict"
		return fmt.Errorf("failed to persist verdict: %w", err)
	}

	if model.Verdict(verdict.Status) != model.VerdictAccepted {
		return nil
	}

	var submission model.Submission
	err = retry.Do(collectorCtx, func() error {
		errInternal := s.db.WithContext(collectorCtx).
			Where("id = ?", verdict.SubmissionID).
			Select("user_id", "problem_id").
			First(&submission).Error
		if errInternal != nil {
			s.log.ErrorContext(collectorCtx, "failed to get submission", logger.Error(errInternal))
			return fmt.Errorf("failed to get submission: %w", errInternal)
		}
		return nil
	}, retry.WithBaseInterval(time.Second))
	if err != nil {
		result = "error"
		reason = "db_get_submission"
		return fmt.Errorf("failed to get submission: %w", err)
	}

	err = retry.Do(collectorCtx, func() error {
		errInternal := s.rankingSvc.RecordAccepted(collectorCtx, submission.UserID, submission.ProblemID, verdict.Score)
		if errInternal != nil {
			s.log.ErrorContext(collectorCtx, "failed to update leaderboard", logger.Error(errInternal))
			return errInternal
		}
		return nil
	}, retry.WithBaseInterval(time.Second))
	if err != nil {
		result = "error"
		reason = "update_leaderboard"
		return fmt.Errorf("failed to update leaderboard: %w", err)
	}

	return nil
}

// persistVerdict writes the terminal submission state and its test case
// rows in one transaction. Re-delivered events overwrite with the same
// values, so the write is idempotent apart from duplicate result rows,
// which the delete guard below prevents.
func (s *ResultCollectorService) persistVerdict(ctx context.Context, verdict *event.VerdictEvent) (err error) {
	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit().Error
		if err != nil {
			err = fmt.Errorf("failed to commit transaction: %w", err)
			tx.Rollback()
		}
	}()

	updates := map[string]any{
		"status":             verdict.Status,
		"score":              verdict.Score,
		"passed_test_cases":  verdict.PassedTests,
		"total_test_cases":   verdict.TotalTests,
		"max_execution_time": verdict.MaxTime,
	}
	if verdict.CompilationError != "" {
		updates["compilation_error"] = verdict.CompilationError
	}
	if verdict.RejectionReason != "" {
		updates["error_data"] = verdict.RejectionReason
	}

	err = tx.Model(&model.Submission{}).
		Where("id = ?", verdict.SubmissionID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}

	err = tx.Where("submission_id = ?", verdict.SubmissionID).
		Delete(&model.TestCaseResult{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear stale test case results: %w", err)
	}

	if len(verdict.TestResults) == 0 {
		return nil
	}

	rows := make([]model.TestCaseResult, 0, len(verdict.TestResults))
	for _, tr := range verdict.TestResults {
		rows = append(rows, model.TestCaseResult{
			SubmissionID:  verdict.SubmissionID,
			TestCaseID:    tr.TestCaseID,
			Status:        model.Verdict(tr.Status),
			ExecutionTime: tr.ExecutionTime,
			ActualOutput:  tr.ActualOutput,
			ErrorMessage:  tr.Error,
		})
	}
	err = tx.Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to create test case results: %w", err)
	}
	return nil
}

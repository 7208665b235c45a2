package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"

	"github.com/edplatform/judge_engine/constants"
	"github.com/edplatform/judge_engine/event"
	"github.com/edplatform/judge_engine/executor"
	execservice "github.com/edplatform/judge_engine/executor/service"
	"github.com/edplatform/judge_engine/model"
)

type fakeProducer struct {
	messages []*sarama.ProducerMessage
}

func (p *fakeProducer) Produce(_ context.Context, msg *sarama.ProducerMessage) (int32, int64, error) {
	p.messages = append(p.messages, msg)
	return 0, int64(len(p.messages)), nil
}

func (p *fakeProducer) lastVerdict(t *testing.T) *event.VerdictEvent {
	t.Helper()
	if len(p.messages) == 0 {
		t.Fatal("no verdict published")
	}
	payload, err := p.messages[len(p.messages)-1].Value.Encode()
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	var ev event.VerdictEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		t.Fatalf("unmarshal verdict: %v", err)
	}
	return &ev
}

type fakeJudger struct {
	verdict *executor.JudgeVerdict
	err     error
}

func (j *fakeJudger) Judge(context.Context, *executor.JudgeRequest) (*executor.JudgeVerdict, error) {
	if j.err != nil {
		return nil, j.err
	}
	return j.verdict, nil
}

func (j *fakeJudger) Close(context.Context) error { return nil }

type fakeCaseSource struct{}

func (fakeCaseSource) Load(context.Context, uint64) ([]model.TestCase, error) {
	return []model.TestCase{
		{ID: 1, Position: 1, Input: "21", ExpectedOutput: "42", Points: 1},
	}, nil
}

func newTestService(t *testing.T, judger executor.Judger) (*JudgeService, redis.Cmdable, *fakeProducer) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	producer := &fakeProducer{}
	svc := &JudgeService{
		log:              loggerv2.GetGlobalLogger(),
		rdb:              rdb,
		producer:         producer,
		judger:           judger,
		cases:            fakeCaseSource{},
		consumerName:     "test-worker",
		autoClaimMinIdle: time.Minute,
	}
	return svc, rdb, producer
}

// enqueueAndRead puts one task on the stream and reads it into the
// group, so it is pending for the test consumer exactly as in the real
// loop.
func enqueueAndRead(t *testing.T, rdb redis.Cmdable, task *event.JudgeTaskMessage) *redis.XMessage {
	t.Helper()
	ctx := context.Background()
	payload, err := json.Marshal(task)
	if err != nil {
		t.Fatal(err)
	}
	if err := rdb.XGroupCreateMkStream(ctx, constants.JudgeTaskStream, groupName, "0").Err(); err != nil {
		t.Fatalf("create group: %v", err)
	}
	if err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: constants.JudgeTaskStream,
		Values: map[string]any{"task": payload},
	}).Err(); err != nil {
		t.Fatalf("xadd: %v", err)
	}
	streams, err := rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    groupName,
		Consumer: "test-worker",
		Streams:  []string{constants.JudgeTaskStream, ">"},
		Count:    1,
	}).Result()
	if err != nil {
		t.Fatalf("xreadgroup: %v", err)
	}
	return &streams[0].Messages[0]
}

func pendingCount(t *testing.T, rdb redis.Cmdable) int64 {
	t.Helper()
	pending, err := rdb.XPending(context.Background(), constants.JudgeTaskStream, groupName).Result()
	if err != nil {
		t.Fatalf("xpending: %v", err)
	}
	return pending.Count
}

func TestProcessMessagePublishesAndAcks(t *testing.T) {
	judger := &fakeJudger{verdict: &executor.JudgeVerdict{
		Status:      model.VerdictAccepted,
		PassedTests: 1,
		TotalTests:  1,
		Score:       100,
		MaxTime:     25 * time.Millisecond,
		TestResults: []executor.TestResult{
			{TestCaseID: 1, Position: 1, Status: model.VerdictAccepted, ActualOutput: "42", Points: 1},
		},
	}}
	svc, rdb, producer := newTestService(t, judger)
	msg := enqueueAndRead(t, rdb, &event.JudgeTaskMessage{
		SubmissionID: 7, ProblemID: 3, Code: "print(int(input()) * 2)", Language: "python",
	})

	if err := svc.processMessage(context.Background(), msg); err != nil {
		t.Fatalf("processMessage error: %v", err)
	}

	ev := producer.lastVerdict(t)
	if ev.SubmissionID != 7 || ev.Status != string(model.VerdictAccepted) {
		t.Errorf("verdict = (%d, %s), want (7, ACCEPTED)", ev.SubmissionID, ev.Status)
	}
	if ev.Score != 100 || len(ev.TestResults) != 1 {
		t.Errorf("verdict score %v with %d results", ev.Score, len(ev.TestResults))
	}
	if got := pendingCount(t, rdb); got != 0 {
		t.Errorf("pending count = %d, want acked", got)
	}
}

func TestProcessMessageValidationRejection(t *testing.T) {
	judger := &fakeJudger{err: &executor.ValidationError{Reason: `use of blocked module "os"`}}
	svc, rdb, producer := newTestService(t, judger)
	msg := enqueueAndRead(t, rdb, &event.JudgeTaskMessage{
		SubmissionID: 8, ProblemID: 3, Code: "import os", Language: "python",
	})

	if err := svc.processMessage(context.Background(), msg); err != nil {
		t.Fatalf("processMessage error: %v", err)
	}

	ev := producer.lastVerdict(t)
	if ev.Status != string(model.VerdictError) {
		t.Errorf("Status = %s, want ERROR", ev.Status)
	}
	if ev.RejectionReason == "" {
		t.Error("rejection published without a reason")
	}
	if got := pendingCount(t, rdb); got != 0 {
		t.Errorf("pending count = %d, want rejection acked", got)
	}
}

func TestProcessMessageInfrastructureFailureStaysPending(t *testing.T) {
	judger := &fakeJudger{err: fmt.Errorf("create container: %w", execservice.ErrUnavailable)}
	svc, rdb, producer := newTestService(t, judger)
	msg := enqueueAndRead(t, rdb, &event.JudgeTaskMessage{
		SubmissionID: 9, ProblemID: 3, Code: "print(1)", Language: "python",
	})

	err := svc.processMessage(context.Background(), msg)
	if !errors.Is(err, execservice.ErrUnavailable) {
		t.Fatalf("processMessage error = %v, want ErrUnavailable", err)
	}
	if len(producer.messages) != 0 {
		t.Error("verdict published despite backend failure")
	}
	if got := pendingCount(t, rdb); got != 1 {
		t.Errorf("pending count = %d, want task left pending for retry", got)
	}
}

func TestProcessMessageMalformedPayload(t *testing.T) {
	svc, rdb, _ := newTestService(t, &fakeJudger{})
	if err := rdb.XGroupCreateMkStream(context.Background(), constants.JudgeTaskStream, groupName, "0").Err(); err != nil {
		t.Fatal(err)
	}
	msg := &redis.XMessage{ID: "1-1", Values: map[string]any{"task": "{not json"}}
	if err := svc.processMessage(context.Background(), msg); err == nil {
		t.Fatal("processMessage accepted malformed payload")
	}
}

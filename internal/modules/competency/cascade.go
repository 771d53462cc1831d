package competency

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/titlememory-backend/internal/domain/titlememory"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
)

// Policy decides what the caller of an update learns about a failed
// subject status notification.
type Policy string

const (
	// PolicyLog dispatches in the background; failures are only logged
	// and counted.
	PolicyLog Policy = "log"
	// PolicyReport waits for delivery and reports the outcome.
	PolicyReport Policy = "report"
)

func ParsePolicy(s string) Policy {
	if Policy(strings.ToLower(strings.TrimSpace(s))) == PolicyReport {
		return PolicyReport
	}
	return PolicyLog
}

// Outcome is reported back under PolicyReport.
type Outcome struct {
	Triggered bool   `json:"triggered"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// CascadeRecorder counts notifications by outcome.
type CascadeRecorder interface {
	RecordCascade(outcome string)
}

type Cascader struct {
	notifier StatusNotifier
	policy   Policy
	timeout  time.Duration
	recorder CascadeRecorder
	log      *logger.Logger
	wg       sync.WaitGroup
}

type CascadeOption func(*Cascader)

func WithPolicy(p Policy) CascadeOption {
	return func(c *Cascader) { c.policy = p }
}

func WithTimeout(d time.Duration) CascadeOption {
	return func(c *Cascader) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithRecorder(r CascadeRecorder) CascadeOption {
	return func(c *Cascader) { c.recorder = r }
}

// NewCascader builds a trigger. A nil notifier is allowed: drift is then
// logged and counted as skipped.
func NewCascader(notifier StatusNotifier, log *logger.Logger, opts ...CascadeOption) *Cascader {
	c := &Cascader{
		notifier: notifier,
		policy:   PolicyLog,
		timeout:  10 * time.Second,
		log:      log.With("module", "CascadeTrigger"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cascader) Policy() Policy { return c.policy }

// Trigger notifies the subjects service that recordID moved to
// StatusIncomplete with the final competencies, when drift says anything
// changed. The call runs detached from ctx's cancellation with its own
// timeout, is never retried and never fails the caller. Under PolicyReport
// it returns the delivery outcome; otherwise nil.
func (c *Cascader) Trigger(ctx context.Context, token, recordID string, drift Drift, final titlememory.Competencies) *Outcome {
	if !drift.Any() {
		return nil
	}
	change := titlememory.StatusChange{
		TitleMemoryID:    recordID,
		Status:           titlememory.StatusIncomplete,
		Skills:           final.Skills,
		LearningOutcomes: final.LearningOutcomes,
	}
	detached := context.WithoutCancel(ctx)

	if c.policy == PolicyReport {
		out := c.deliver(detached, token, change, drift)
		return &out
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.deliver(detached, token, change, drift)
	}()
	return nil
}

// Wait blocks until background deliveries have finished.
func (c *Cascader) Wait() {
	c.wg.Wait()
}

func (c *Cascader) deliver(ctx context.Context, token string, change titlememory.StatusChange, drift Drift) Outcome {
	ctx, span := tracer.Start(ctx, "competency.Cascade")
	defer span.End()
	span.SetAttributes(
		attribute.String("title_memory_id", change.TitleMemoryID),
		attribute.Bool("skills_changed", drift.Skills),
		attribute.Bool("outcomes_changed", drift.Outcomes),
	)

	if c.notifier == nil {
		c.record("skipped")
		c.log.Warn("competency drift not propagated: subjects service not configured", "title_memory_id", change.TitleMemoryID)
		return Outcome{Triggered: true, Error: "subjects service not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.notifier.ChangeStatus(ctx, token, change); err != nil {
		span.RecordError(err)
		c.record("failed")
		c.log.Warn("subject status notification failed",
			"title_memory_id", change.TitleMemoryID,
			"skills_changed", drift.Skills,
			"outcomes_changed", drift.Outcomes,
			"error", err,
		)
		return Outcome{Triggered: true, Error: "subject status notification failed"}
	}
	c.record("delivered")
	c.log.Info("subject status notification delivered", "title_memory_id", change.TitleMemoryID)
	return Outcome{Triggered: true, Delivered: true}
}

func (c *Cascader) record(outcome string) {
	if c.recorder != nil {
		c.recorder.RecordCascade(outcome)
	}
}

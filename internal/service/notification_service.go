package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unigrado/grado-api/internal/models"
	"github.com/unigrado/grado-api/pkg/jobs"
)

// StatusChangeEvent is the payload delivered to notification recipients when
// a project moves between statuses.
type StatusChangeEvent struct {
	ProjectID      string              `json:"project_id"`
	ProjectTitle   string              `json:"project_title"`
	ActionType     models.ActionTypeID `json:"action_type"`
	PreviousStatus *models.StatusID    `json:"previous_status,omitempty"`
	NewStatus      *models.StatusID    `json:"new_status,omitempty"`
	Description    string              `json:"description"`
}

// EmailSender delivers one status-change event to the project's roster.
type EmailSender interface {
	SendStatusChange(ctx context.Context, event StatusChangeEvent) error
}

// LogSender is the default sender: it records the event instead of emailing
// it, which keeps development and test environments side-effect free.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender builds a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// SendStatusChange logs the event.
func (s *LogSender) SendStatusChange(_ context.Context, event StatusChangeEvent) error {
	s.logger.Info("status change notification",
		zap.String("project_id", event.ProjectID),
		zap.String("project_title", event.ProjectTitle),
		zap.String("action", string(event.ActionType)),
		zap.Any("previous_status", event.PreviousStatus),
		zap.Any("new_status", event.NewStatus),
	)
	return nil
}

// NotificationService fans status-change events out through a background job
// queue. Delivery is fire-and-forget: enqueue failures are logged and never
// surface to the transition that produced the event.
type NotificationService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService wires the sender behind a worker queue.
func NewNotificationService(sender EmailSender, workers int, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		event, ok := job.Payload.(StatusChangeEvent)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return sender.SendStatusChange(ctx, event)
	}
	queue := jobs.NewQueue("notifications", handler, jobs.QueueConfig{
		Workers: workers,
		Logger:  logger,
	})
	return &NotificationService{queue: queue, logger: logger}
}

// Start launches the delivery workers.
func (n *NotificationService) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (n *NotificationService) Stop() {
	n.queue.Stop()
}

// NotifyStatusChange enqueues one event. Errors are swallowed after logging;
// a notification must never fail or delay the transition it describes.
func (n *NotificationService) NotifyStatusChange(project *models.Project, entry *models.AuditEntry) {
	event := StatusChangeEvent{
		ProjectID:      project.ID,
		ProjectTitle:   project.Title,
		ActionType:     entry.ActionType,
		PreviousStatus: entry.PreviousStatusID,
		NewStatus:      entry.NewStatusID,
		Description:    entry.Description,
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    "status_change",
		Payload: event,
	}
	if err := n.queue.Enqueue(job); err != nil {
		n.logger.Warn("failed to enqueue notification",
			zap.String("project_id", project.ID),
			zap.Error(err),
		)
	}
}

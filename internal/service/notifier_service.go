package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/limpopochefs/academy-api/internal/models"
	"github.com/limpopochefs/academy-api/pkg/jobs"
	"github.com/limpopochefs/academy-api/pkg/mail"
)

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByStudent(ctx context.Context, studentID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, studentID string) error
}

type notifierStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// notifyPayload is the queued fan-out unit.
type notifyPayload struct {
	StudentID    string
	Kind         string
	Title        string
	Body         string
	AssignmentID string
}

// NotifierService fans marking events out to in-app notifications and email
// through a background queue. Enqueue failures are logged and swallowed so a
// notifier outage can never fail a marking transaction.
type NotifierService struct {
	notifications notificationWriter
	students      notifierStudentReader
	mailer        mail.Sender
	queue         *jobs.Queue
	logger        *zap.Logger
}

// NewNotifierService constructs a NotifierService. Call Start before use and
// Stop on shutdown.
func NewNotifierService(notifications notificationWriter, students notifierStudentReader, mailer mail.Sender, cfg jobs.QueueConfig, logger *zap.Logger) *NotifierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotifierService{
		notifications: notifications,
		students:      students,
		mailer:        mailer,
		logger:        logger,
	}
	s.queue = jobs.NewQueue("notifications", s.deliver, cfg)
	return s
}

// Start launches the delivery workers.
func (s *NotifierService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (s *NotifierService) Stop() {
	s.queue.Stop()
}

// ResultMarked notifies a student that their attempt was marked.
func (s *NotifierService) ResultMarked(studentID, assignmentID, assignmentTitle string, percent int) {
	s.enqueue(notifyPayload{
		StudentID:    studentID,
		Kind:         models.NotificationResultMarked,
		Title:        "Assignment marked",
		Body:         fmt.Sprintf("Your submission for %q has been marked: %d%%.", assignmentTitle, percent),
		AssignmentID: assignmentID,
	})
}

// ResultModerated notifies a student that their attempt was moderated.
func (s *NotifierService) ResultModerated(studentID, assignmentID, assignmentTitle string, percent int) {
	s.enqueue(notifyPayload{
		StudentID:    studentID,
		Kind:         models.NotificationResultModerated,
		Title:        "Assignment moderated",
		Body:         fmt.Sprintf("Your result for %q has been moderated: %d%%.", assignmentTitle, percent),
		AssignmentID: assignmentID,
	})
}

// AttemptTerminated notifies a student of a forced submission.
func (s *NotifierService) AttemptTerminated(studentID, assignmentID, assignmentTitle string) {
	s.enqueue(notifyPayload{
		StudentID:    studentID,
		Kind:         models.NotificationTerminated,
		Title:        "Assignment terminated",
		Body:         fmt.Sprintf("Your session for %q was terminated and submitted as-is.", assignmentTitle),
		AssignmentID: assignmentID,
	})
}

// List returns a student's notifications.
func (s *NotifierService) List(ctx context.Context, studentID string, unreadOnly bool) ([]models.Notification, error) {
	return s.notifications.ListByStudent(ctx, studentID, unreadOnly)
}

// MarkRead stamps one notification as read.
func (s *NotifierService) MarkRead(ctx context.Context, id, studentID string) error {
	return s.notifications.MarkRead(ctx, id, studentID)
}

func (s *NotifierService) enqueue(payload notifyPayload) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    payload.Kind,
		Payload: payload,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("student_id", payload.StudentID),
			zap.String("kind", payload.Kind),
			zap.Error(err))
	}
}

func (s *NotifierService) deliver(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(notifyPayload)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}

	assignmentID := payload.AssignmentID
	notification := &models.Notification{
		StudentID:    payload.StudentID,
		Kind:         payload.Kind,
		Title:        payload.Title,
		Body:         payload.Body,
		AssignmentID: &assignmentID,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}

	if s.mailer == nil {
		return nil
	}
	student, err := s.students.FindByID(ctx, payload.StudentID)
	if err != nil || student == nil {
		s.logger.Warn("cannot resolve student for notification email",
			zap.String("student_id", payload.StudentID), zap.Error(err))
		return nil
	}
	if err := s.mailer.Send(mail.Message{
		ToName:    student.FirstName + " " + student.LastName,
		ToAddress: student.Email,
		Subject:   payload.Title,
		Body:      payload.Body,
	}); err != nil {
		s.logger.Warn("failed to send notification email",
			zap.String("student_id", payload.StudentID), zap.Error(err))
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/internal/course/notify"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
	"github.com/JorgeIteq1000/turma-digital/pkg/idx"
)

// LiveLessonWindow is how far either side of a lesson's scheduled slot it
// counts as "live now" in the bell menu.
const LiveLessonWindow = time.Hour

// NotificationLimit caps how many stored notices the bell menu shows.
const NotificationLimit = 20

// EventPublisher pushes notification events onto the message broker.
// Optional; a nil publisher keeps everything local.
type EventPublisher interface {
	PublishDemoExpired(ctx context.Context, userID string) error
	PublishLessonLive(ctx context.Context, lesson domain.Lesson) error
}

// NotificationService manages stored notices and synthesizes live-lesson
// ones on the fly.
type NotificationService struct {
	Store     store.Store
	Publisher EventPublisher
	Logger    *slog.Logger
}

// ListForUser returns live-lesson notices for the user's enrolled classes
// followed by stored notices (broadcast plus personal), newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	now := time.Now().UTC()

	classIDs, err := s.Store.Enrollments().ListClassGroupIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}

	live, err := s.Store.Lessons().ListLessonsForClassGroups(ctx, classIDs,
		now.Add(-LiveLessonWindow), now.Add(LiveLessonWindow))
	if err != nil {
		return nil, fmt.Errorf("list live lessons: %w", err)
	}

	notifications := make([]domain.Notification, 0, len(live)+NotificationLimit)
	for _, l := range live {
		notifications = append(notifications, liveLessonNotification(l))
	}

	stored, err := s.Store.Notifications().ListNotifications(ctx, userID, NotificationLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return append(notifications, stored...), nil
}

// liveLessonNotification is synthesized per request, never stored; its id is
// derived from the lesson so the client can de-duplicate across refreshes.
func liveLessonNotification(l domain.Lesson) domain.Notification {
	className := ""
	if l.ClassGroup != nil {
		className = l.ClassGroup.Name
	}
	return domain.Notification{
		ID:        "live-" + l.ID,
		Title:     "Aula ao vivo",
		Message:   fmt.Sprintf("%s (%s)", l.Title, className),
		Link:      "/lessons/" + l.ID,
		CreatedAt: l.ScheduledAt,
	}
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return s.Store.Notifications().MarkNotificationRead(ctx, id)
}

// Broadcast stores a notice visible to every user.
func (s *NotificationService) Broadcast(ctx context.Context, title, message, link string) (domain.Notification, error) {
	n := domain.Notification{
		ID:        idx.New().String(),
		Title:     title,
		Message:   message,
		Link:      link,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.Notifications().CreateNotification(ctx, n); err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}

// NotifyDemoExpired is wired as the access gate's expiry hook. With a
// broker configured the event is published and the consumer stores the
// notice; without one it is stored directly. Failures are logged, not
// returned: the sign-out already happened and must not be undone by a
// notification hiccup.
func (s *NotificationService) NotifyDemoExpired(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.Publisher != nil {
		if err := s.Publisher.PublishDemoExpired(ctx, userID); err == nil {
			return
		} else {
			s.Logger.Error("publish demo expiry event, storing locally", "user_id", userID, "error", err)
		}
	}

	if err := s.storeDemoExpired(ctx, userID); err != nil {
		s.Logger.Error("store demo expiry notification", "user_id", userID, "error", err)
	}
}

func (s *NotificationService) storeDemoExpired(ctx context.Context, userID string) error {
	return s.Store.Notifications().CreateNotification(ctx, domain.Notification{
		ID:        idx.New().String(),
		UserID:    userID,
		Title:     "Acesso demo expirado",
		Message:   "Seu período de demonstração terminou. Fale com o suporte para continuar.",
		CreatedAt: time.Now().UTC(),
	})
}

// AnnounceLessonLive publishes a live-lesson event for consumers (e.g. a
// push/email worker).
func (s *NotificationService) AnnounceLessonLive(ctx context.Context, lesson domain.Lesson) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishLessonLive(ctx, lesson); err != nil {
		s.Logger.Error("publish lesson live event", "lesson_id", lesson.ID, "error", err)
	}
}

// HandleDemoExpired stores the expiry notice for a consumed broker event.
func (s *NotificationService) HandleDemoExpired(ctx context.Context, ev notify.DemoExpiredEvent) error {
	return s.storeDemoExpired(ctx, ev.UserID)
}

// HandleLessonLive stores a broadcast notice for a consumed broker event.
func (s *NotificationService) HandleLessonLive(ctx context.Context, ev notify.LessonLiveEvent) error {
	return s.Store.Notifications().CreateNotification(ctx, domain.Notification{
		ID:        idx.New().String(),
		Title:     "Aula ao vivo",
		Message:   ev.Title,
		Link:      "/lessons/" + ev.LessonID,
		CreatedAt: time.Now().UTC(),
	})
}

package usecase

import (
	"context"
	"time"

	"aprendo-backend/internal/domain"
	"aprendo-backend/pkg/realtime"
)

type notificationUsecase struct {
	notificationRepo domain.NotificationRepository
	hub              *realtime.Hub
}

func NewNotificationUsecase(nr domain.NotificationRepository, hub *realtime.Hub) domain.NotificationUsecase {
	return &notificationUsecase{
		notificationRepo: nr,
		hub:              hub,
	}
}

// Notify persists the notification first, then pushes it to the user's live
// channel best-effort.
func (uc *notificationUsecase) Notify(ctx context.Context, userID uint, title, message string, typ domain.NotificationType, link string) (*domain.Notification, error) {
	notification := &domain.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		Link:      link,
		CreatedAt: time.Now(),
	}
	if err := uc.notificationRepo.Create(ctx, notification); err != nil {
		return nil, err
	}

	if uc.hub != nil {
		uc.hub.Publish(userID, realtime.Event{Type: "notification", Payload: notification})
	}
	return notification, nil
}

func (uc *notificationUsecase) List(ctx context.Context, userID uint, onlyUnread bool, limit int) ([]domain.Notification, int64, error) {
	notifications, err := uc.notificationRepo.GetByUserID(ctx, userID, onlyUnread, limit)
	if err != nil {
		return nil, 0, err
	}
	unread, err := uc.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return notifications, unread, nil
}

func (uc *notificationUsecase) MarkRead(ctx context.Context, id, userID uint) (*domain.Notification, error) {
	notification, err := uc.notificationRepo.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, &domain.NotFoundError{Resource: "notification"}
	}
	if notification.Read {
		return notification, nil
	}

	now := time.Now()
	notification.Read = true
	notification.ReadAt = &now
	if err := uc.notificationRepo.Update(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (uc *notificationUsecase) MarkAllRead(ctx context.Context, userID uint) error {
	return uc.notificationRepo.MarkAllRead(ctx, userID)
}

func (uc *notificationUsecase) Delete(ctx context.Context, id, userID uint) error {
	notification, err := uc.notificationRepo.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return err
	}
	if notification == nil {
		return &domain.NotFoundError{Resource: "notification"}
	}
	return uc.notificationRepo.Delete(ctx, id, userID)
}

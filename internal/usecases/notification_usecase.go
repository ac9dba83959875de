package usecases

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/internal/domain/repositories"
	"solbol.backend/pkg/logger"
	"solbol.backend/pkg/utils"
)

const notificationListLimit = 50

// NotificationUsecase manages per-user notifications
type NotificationUsecase struct {
	repo     repositories.NotificationRepository
	userRepo repositories.UserRepository
	events   EventEmitter
}

// NewNotificationUsecase creates a new notification usecase
func NewNotificationUsecase(
	repo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	events EventEmitter,
) *NotificationUsecase {
	return &NotificationUsecase{
		repo:     repo,
		userRepo: userRepo,
		events:   emitterOrNoop(events),
	}
}

// Notify creates a notification for userID.
func (u *NotificationUsecase) Notify(ctx context.Context, userID uuid.UUID, title, message string, typ entities.NotificationType) (*entities.Notification, error) {
	n := &entities.Notification{
		ID:      utils.GenerateUUIDv7(),
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    typ,
	}
	if err := u.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	u.events.Emit(ctx, changeEvent(ctx, entities.TableNotifications, entities.ChangeInsert, n.ID, ownerOf(userID), n, nil))
	return n, nil
}

// NotifyAdmins sends the same notification to every admin. Failures are
// logged per recipient.
func (u *NotificationUsecase) NotifyAdmins(ctx context.Context, title, message string, typ entities.NotificationType) {
	ids, err := u.userRepo.ListIDsByRole(ctx, entities.UserRoleAdmin)
	if err != nil {
		logger.Error(ctx, "Failed to list admins for notification", zap.Error(err))
		return
	}
	for _, id := range ids {
		if _, err := u.Notify(ctx, id, title, message, typ); err != nil {
			logger.Error(ctx, "Failed to notify admin", zap.String("admin_id", id.String()), zap.Error(err))
		}
	}
}

// notifyQuietly is used after a committed change: the change stands even
// when the notification cannot be written.
func (u *NotificationUsecase) notifyQuietly(ctx context.Context, userID uuid.UUID, title, message string, typ entities.NotificationType) {
	if u == nil {
		return
	}
	if _, err := u.Notify(ctx, userID, title, message, typ); err != nil {
		logger.Error(ctx, "Failed to notify user", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func (u *NotificationUsecase) notifyAdminsQuietly(ctx context.Context, title, message string, typ entities.NotificationType) {
	if u == nil {
		return
	}
	u.NotifyAdmins(ctx, title, message, typ)
}

// List returns the newest notifications and the unread count
func (u *NotificationUsecase) List(ctx context.Context, userID uuid.UUID) (*entities.NotificationList, error) {
	items, err := u.repo.ListByUser(ctx, userID, notificationListLimit)
	if err != nil {
		return nil, err
	}
	unread, err := u.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*entities.Notification{}
	}
	return &entities.NotificationList{Notifications: items, UnreadCount: unread}, nil
}

// MarkRead marks one of the caller's notifications as read
func (u *NotificationUsecase) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := u.repo.MarkRead(ctx, id, userID); err != nil {
		return err
	}

	n, err := u.repo.GetByID(ctx, id)
	if err != nil {
		logger.Warn(ctx, "Failed to reload notification", zap.String("notification_id", id.String()), zap.Error(err))
		return nil
	}
	u.events.Emit(ctx, changeEvent(ctx, entities.TableNotifications, entities.ChangeUpdate, n.ID, ownerOf(userID), n, nil))
	return nil
}

// MarkAllRead marks every unread notification of the caller as read
func (u *NotificationUsecase) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	ids, err := u.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}

	events := make([]*entities.ChangeEvent, 0, len(ids))
	for _, id := range ids {
		n, err := u.repo.GetByID(ctx, id)
		if err != nil {
			continue
		}
		events = append(events, changeEvent(ctx, entities.TableNotifications, entities.ChangeUpdate, id, ownerOf(userID), n, nil))
	}
	u.events.Emit(ctx, events...)
	return len(ids), nil
}

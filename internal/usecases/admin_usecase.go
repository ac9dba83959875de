package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"solbol.backend/internal/domain/entities"
	domainerrors "solbol.backend/internal/domain/errors"
	"solbol.backend/internal/domain/repositories"
	"solbol.backend/pkg/logger"
	"solbol.backend/pkg/utils"
)

const (
	recentApprovalsWindow = 7 * 24 * time.Hour
	recentApprovalsLimit  = 5
)

// AdminUsecase backs the admin dashboard and user management
type AdminUsecase struct {
	userRepo      repositories.UserRepository
	orderRepo     repositories.OrderRepository
	rates         *RateUsecase
	uow           repositories.UnitOfWork
	audit         *AuditUsecase
	notifications *NotificationUsecase
	events        EventEmitter
}

// NewAdminUsecase creates a new admin usecase
func NewAdminUsecase(
	userRepo repositories.UserRepository,
	orderRepo repositories.OrderRepository,
	rates *RateUsecase,
	uow repositories.UnitOfWork,
	audit *AuditUsecase,
	notifications *NotificationUsecase,
	events EventEmitter,
) *AdminUsecase {
	return &AdminUsecase{
		userRepo:      userRepo,
		orderRepo:     orderRepo,
		rates:         rates,
		uow:           uow,
		audit:         audit,
		notifications: notifications,
		events:        emitterOrNoop(events),
	}
}

// Stats returns the dashboard counters
func (u *AdminUsecase) Stats(ctx context.Context) (*entities.AdminStats, error) {
	totalUsers, err := u.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	clients, err := u.userRepo.CountByStatus(ctx, entities.UserRoleClient)
	if err != nil {
		return nil, err
	}
	totalOrders, err := u.orderRepo.CountByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}
	pendingOrders, err := u.orderRepo.CountByStatus(ctx, nil, entities.OpenOrderStatuses...)
	if err != nil {
		return nil, err
	}
	completedOrders, err := u.orderRepo.CountByStatus(ctx, nil, entities.OrderStatusCompleted)
	if err != nil {
		return nil, err
	}

	stats := &entities.AdminStats{
		TotalUsers:      totalUsers,
		PendingKYC:      clients.PendingKYC,
		TotalOrders:     totalOrders,
		PendingOrders:   pendingOrders,
		CompletedOrders: completedOrders,
	}

	rate, err := u.rates.Active(ctx)
	switch {
	case err == nil:
		stats.ActiveRate = rate
	case !errors.Is(err, domainerrors.ErrNoActiveRate):
		return nil, err
	}
	return stats, nil
}

// UsersSummary returns client counts and the latest approvals
func (u *AdminUsecase) UsersSummary(ctx context.Context) (*entities.UsersSummary, error) {
	counts, err := u.userRepo.CountByStatus(ctx, entities.UserRoleClient)
	if err != nil {
		return nil, err
	}
	recent, err := u.userRepo.ListApprovedSince(ctx, time.Now().Add(-recentApprovalsWindow), recentApprovalsLimit)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []*entities.User{}
	}
	return &entities.UsersSummary{Counts: counts, RecentApprovals: recent}, nil
}

// ApprovedUsers lists active clients with their order activity
func (u *AdminUsecase) ApprovedUsers(ctx context.Context) ([]*entities.ApprovedUser, error) {
	users, err := u.userRepo.ListByStatus(ctx, entities.UserRoleClient, entities.UserStatusActive)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(users))
	for _, usr := range users {
		ids = append(ids, usr.ID)
	}
	activity, err := u.orderRepo.ActivityByClient(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]*entities.ApprovedUser, 0, len(users))
	for _, usr := range users {
		a := activity[usr.ID]
		result = append(result, &entities.ApprovedUser{
			User:          usr,
			TotalOrders:   a.TotalOrders,
			LastOrderDate: a.LastOrderDate,
		})
	}
	return result, nil
}

// CheckUser reports whether a profile exists for email
func (u *AdminUsecase) CheckUser(ctx context.Context, email string) (*entities.CheckUserResult, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, domainerrors.BadRequest("a valid email is required")
	}

	user, err := u.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return &entities.CheckUserResult{Exists: false}, nil
		}
		return nil, err
	}
	return &entities.CheckUserResult{Exists: true, User: user}, nil
}

// GetUser returns any profile
func (u *AdminUsecase) GetUser(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return u.userRepo.GetByID(ctx, id)
}

// UserOrders returns every order of a client, newest first
func (u *AdminUsecase) UserOrders(ctx context.Context, id uuid.UUID) ([]*entities.Order, error) {
	if _, err := u.userRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	orders, _, err := u.orderRepo.List(ctx, entities.OrderFilter{ClientID: &id})
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*entities.Order{}
	}
	return orders, nil
}

// SetUserStatus suspends or reactivates an account.
func (u *AdminUsecase) SetUserStatus(ctx context.Context, adminID, userID uuid.UUID, input *entities.SetUserStatusInput) (*entities.User, error) {
	if input.Status != entities.UserStatusActive && input.Status != entities.UserStatusSuspended {
		return nil, domainerrors.BadRequest("status must be active or suspended")
	}
	if adminID == userID {
		return nil, domainerrors.BadRequest("you cannot change your own status")
	}

	var old, updated *entities.User
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		user, err := u.userRepo.GetByIDForUpdate(txCtx, userID)
		if err != nil {
			return err
		}
		if user.Status == input.Status {
			old, updated = user, user
			return nil
		}

		before := *user
		var approvedAt *time.Time
		if input.Status == entities.UserStatusActive && !user.ApprovedAt.Valid {
			now := time.Now().UTC()
			approvedAt = &now
			user.ApprovedAt = null.TimeFrom(now)
		}
		if err := u.userRepo.UpdateStatus(txCtx, userID, input.Status, approvedAt); err != nil {
			return err
		}
		user.Status = input.Status

		old, updated = &before, user
		newValues := map[string]interface{}{"status": user.Status}
		if input.Reason != "" {
			newValues["reason"] = input.Reason
		}
		return u.audit.Record(txCtx, adminID, entities.AuditUserStatus, entities.TableUsers, userID,
			map[string]interface{}{"status": before.Status}, newValues)
	})
	if err != nil {
		return nil, err
	}
	if old == updated {
		return updated, nil
	}

	logger.Info(ctx, "User status changed",
		zap.String("user_id", userID.String()),
		zap.String("from", string(old.Status)),
		zap.String("to", string(updated.Status)),
	)
	u.events.Emit(ctx, changeEvent(ctx, entities.TableUsers, entities.ChangeUpdate, userID, ownerOf(userID), updated, old))

	if updated.Status == entities.UserStatusSuspended {
		message := "Tu cuenta fue suspendida. Contacta al administrador."
		if input.Reason != "" {
			message += " Motivo: " + input.Reason
		}
		u.notifications.notifyQuietly(ctx, userID, "Cuenta suspendida", message, entities.NotificationError)
	} else {
		u.notifications.notifyQuietly(ctx, userID, "Cuenta reactivada", "Tu cuenta está activa nuevamente.", entities.NotificationSuccess)
	}
	return updated, nil
}

// AuditLogs returns a page of the audit trail
func (u *AdminUsecase) AuditLogs(ctx context.Context, page, limit int) ([]*entities.AuditLog, utils.PaginationMeta, error) {
	return u.audit.List(ctx, page, limit)
}

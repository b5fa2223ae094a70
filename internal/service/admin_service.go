package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/auth"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/export"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/repository"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// DateRange selects predictions by creation day. Both bounds are
// inclusive days in server time; a zero range selects everything.
type DateRange struct {
	From  time.Time
	Until time.Time
}

// ParseDateRange reads start and end dates in YYYY-MM-DD form. Either both
// or neither must be given.
func ParseDateRange(start, end string) (DateRange, error) {
	if start == "" && end == "" {
		return DateRange{}, nil
	}
	if start == "" || end == "" {
		return DateRange{}, utils.NewBadRequestError(constants.MsgDateRangeRequired)
	}

	from, err := time.ParseInLocation(constants.DateLayout, start, time.Local)
	if err != nil {
		return DateRange{}, utils.NewValidationError(constants.QueryParamStartDate, constants.MsgInvalidDate)
	}
	until, err := time.ParseInLocation(constants.DateLayout, end, time.Local)
	if err != nil {
		return DateRange{}, utils.NewValidationError(constants.QueryParamEndDate, constants.MsgInvalidDate)
	}
	if until.Before(from) {
		return DateRange{}, utils.NewBadRequestError(constants.MsgInvalidDateRange)
	}

	return DateRange{From: from, Until: until}, nil
}

// IsZero reports whether the range selects everything.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.Until.IsZero()
}

// Filter converts the range to a repository filter with an exclusive end.
func (r DateRange) Filter() models.PredictionFilter {
	if r.IsZero() {
		return models.PredictionFilter{}
	}
	return models.PredictionFilter{From: r.From, Until: r.Until.AddDate(0, 0, 1)}
}

// AdminService backs the admin console.
type AdminService struct {
	userRepo       repository.UserRepository
	sessionRepo    repository.SessionRepository
	predictionRepo repository.PredictionRepository
	passwordCfg    *auth.PasswordConfig
	now            func() time.Time
}

// NewAdminService creates a new AdminService
func NewAdminService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	predictionRepo repository.PredictionRepository,
	passwordCfg *auth.PasswordConfig,
) *AdminService {
	return &AdminService{
		userRepo:       userRepo,
		sessionRepo:    sessionRepo,
		predictionRepo: predictionRepo,
		passwordCfg:    passwordCfg,
		now:            time.Now,
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Dashboard gathers the overview counts and the newest predictions.
func (s *AdminService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := s.predictionRepo.Stats(ctx, startOfDay(s.now()))
	if err != nil {
		return nil, err
	}

	stats.TotalPatients, err = s.userRepo.CountByRole(ctx, constants.RolePatient)
	if err != nil {
		return nil, err
	}

	stats.RecentPredictions, err = s.predictionRepo.Recent(ctx, constants.DashboardRecentLimit)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// ListUsers returns every account split by role.
func (s *AdminService) ListUsers(ctx context.Context) (*models.UserList, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	list := &models.UserList{
		Admins:   []*models.User{},
		Patients: []*models.User{},
	}
	for _, u := range users {
		if u.IsAdmin() {
			list.Admins = append(list.Admins, u.Sanitize())
		} else {
			list.Patients = append(list.Patients, u.Sanitize())
		}
	}

	return list, nil
}

// GetUser returns one account.
func (s *AdminService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

// CreateUser creates an account with any role.
func (s *AdminService) CreateUser(ctx context.Context, req *models.AdminUserCreate) (*models.User, error) {
	user, err := createAccount(ctx, s.userRepo, s.passwordCfg, accountFields{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64(constants.UserIDContextKey, user.ID).
		Str(constants.RoleContextKey, user.Role).
		Msg("Account created by administrator")

	return user.Sanitize(), nil
}

// UpdateUser edits an account. A role change takes effect in the user's
// tokens from their next refresh.
func (s *AdminService) UpdateUser(ctx context.Context, id int64, req *models.AdminUserUpdate) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changed, err := applyProfile(ctx, s.userRepo, user, req.Username, req.Email, req.FullName)
	if err != nil {
		return nil, err
	}
	if req.Role != "" && req.Role != user.Role {
		user.Role = req.Role
		changed = true
	}

	if changed {
		if err := s.userRepo.Update(ctx, user); err != nil {
			if utils.IsDuplicateError(err) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	if req.Password != "" {
		if err := setPassword(ctx, s.userRepo, s.sessionRepo, s.passwordCfg, id, req.Password); err != nil {
			return nil, err
		}
	}

	return user.Sanitize(), nil
}

// DeleteUser removes an account other than the caller's own.
func (s *AdminService) DeleteUser(ctx context.Context, actor auth.Identity, id int64) error {
	if actor.UserID == id {
		return utils.NewBadRequestError(constants.MsgCannotDeleteSelf)
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Info().
		Int64(constants.UserIDContextKey, id).
		Int64("deleted_by", actor.UserID).
		Msg("Account deleted by administrator")

	return nil
}

// ListPredictions returns one page of all predictions within r.
func (s *AdminService) ListPredictions(ctx context.Context, r DateRange, page utils.PaginationParams) ([]*models.Prediction, int, error) {
	return s.predictionRepo.List(ctx, r.Filter(), page)
}

// DeletePrediction removes any prediction.
func (s *AdminService) DeletePrediction(ctx context.Context, id int64) error {
	return s.predictionRepo.Delete(ctx, id)
}

// Export renders every prediction within r.
func (s *AdminService) Export(ctx context.Context, r DateRange, format export.Format) ([]byte, error) {
	predictions, err := s.predictionRepo.ListAll(ctx, r.Filter())
	if err != nil {
		return nil, err
	}

	data, err := export.Render(format, export.Report{
		Predictions: predictions,
		From:        r.From,
		Until:       r.Until,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render %s export: %w", format, err)
	}

	log.Info().
		Str(constants.ParamFormat, string(format)).
		Int("predictions", len(predictions)).
		Msg("Predictions exported")

	return data, nil
}

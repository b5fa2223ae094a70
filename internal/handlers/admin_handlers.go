package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/auth"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/export"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/service"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// AdminHandler serves the admin console. Every route is behind an admin
// capability check.
type AdminHandler struct {
	adminService AdminServiceInterface
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminService AdminServiceInterface) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// Dashboard handles GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Dashboard(r.Context())
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, stats)
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, users)
}

// GetUser handles GET /api/admin/users/{id}
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "user")
	if !ok {
		return
	}

	user, err := h.adminService.GetUser(r.Context(), id)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, user)
}

// CreateUser handles POST /api/admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.AdminUserCreate
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	user, err := h.adminService.CreateUser(r.Context(), &req)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	log.Info().
		Int64("actor_id", auth.GetIdentity(r).UserID).
		Int64(constants.UserIDContextKey, user.ID).
		Str(constants.RoleContextKey, user.Role).
		Msg("Account created by administrator")

	utils.JSON(w, http.StatusCreated, user)
}

// UpdateUser handles PUT /api/admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "user")
	if !ok {
		return
	}

	var req models.AdminUserUpdate
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	user, err := h.adminService.UpdateUser(r.Context(), id, &req)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "user")
	if !ok {
		return
	}

	actor := auth.GetIdentity(r)
	if err := h.adminService.DeleteUser(r.Context(), actor, id); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	log.Info().
		Int64("actor_id", actor.UserID).
		Int64(constants.UserIDContextKey, id).
		Msg("Account deleted by administrator")

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"message": constants.MsgUserDeleted,
	})
}

// ListPredictions handles GET /api/admin/predictions with optional
// start_date and end_date.
func (h *AdminHandler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	dateRange, ok := dateRangeParams(w, r)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(r)

	predictions, total, err := h.adminService.ListPredictions(r.Context(), dateRange, params)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.Paginated(w, http.StatusOK, predictions, params.Page, params.PageSize, total)
}

// DeletePrediction handles DELETE /api/admin/predictions/{id}
func (h *AdminHandler) DeletePrediction(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "prediction")
	if !ok {
		return
	}

	if err := h.adminService.DeletePrediction(r.Context(), id); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"message": constants.MsgPredictionDeleted,
	})
}

// ExportPredictions handles GET /api/admin/predictions/export/{format} and
// sends the report as a download.
func (h *AdminHandler) ExportPredictions(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, constants.ParamFormat))
	if err != nil {
		utils.BadRequest(w, constants.MsgUnknownExport, map[string]string{
			constants.ParamFormat: chi.URLParam(r, constants.ParamFormat),
		})
		return
	}

	dateRange, ok := dateRangeParams(w, r)
	if !ok {
		return
	}

	data, err := h.adminService.Export(r.Context(), dateRange, format)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.Attachment(w, format.ContentType(), format.Filename(), data)
}

func dateRangeParams(w http.ResponseWriter, r *http.Request) (service.DateRange, bool) {
	query := r.URL.Query()
	dateRange, err := service.ParseDateRange(query.Get(constants.QueryParamStartDate), query.Get(constants.QueryParamEndDate))
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return service.DateRange{}, false
	}
	return dateRange, true
}

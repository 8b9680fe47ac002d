package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/taxi-fleet-system/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/validator"
)

type DriverService interface {
	Register(ctx context.Context, driver *models.Driver) (*models.Driver, error)
	Get(ctx context.Context, driverID int64) (*models.Driver, error)
	UpdateProfile(ctx context.Context, driver *models.Driver) (*models.Driver, error)
	UpdateLocation(ctx context.Context, driverID int64, lat, lon float64) error
	SetOnlineStatus(ctx context.Context, driverID int64, status types.OnlineStatus) error
	List(ctx context.Context, taxiparkID int64, filters models.Filters) ([]*models.Driver, models.Metadata, error)
}

// DriverAdminService блокирует и разблокирует водителей с уведомлением.
type DriverAdminService interface {
	SetDriverActive(ctx context.Context, driverID int64, isActive bool) (*models.Driver, error)
}

type Driver struct {
	service DriverService
	admin   DriverAdminService
	l       logger.Logger
}

func NewDriver(service DriverService, admin DriverAdminService, l logger.Logger) *Driver {
	return &Driver{
		service: service,
		admin:   admin,
		l:       l,
	}
}

// Register creates a driver in the dispatcher's taxipark.
func (h *Driver) Register(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "register_driver")

	var req dto.RegisterDriverRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		badRequestResponse(w, err.Error())
		return
	}

	// Диспетчер регистрирует водителя только в своём парке.
	user := models.UserFromContext(ctx)
	if user.Role == types.RoleDispatcher {
		req.TaxiparkID = user.TaxiparkID
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	driver, err := h.service.Register(ctx, req.ToModel())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to register a new driver", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"driver": dto.NewDriverResponse(driver)}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "driver registered successfully", "driver_id", driver.ID)
}

// Me returns the profile of the authenticated driver.
func (h *Driver) Me(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_driver_profile")

	user := models.UserFromContext(ctx)
	driver, err := h.service.Get(ctx, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get driver profile", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"driver": dto.NewDriverResponse(driver)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// UpdateProfile updates the authenticated driver's profile. Phone and
// taxipark are immutable.
func (h *Driver) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_driver_profile")

	var req dto.UpdateDriverProfileRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	user := models.UserFromContext(ctx)
	driver, err := h.service.UpdateProfile(ctx, req.ToModel(user.ID))
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to update driver profile", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"driver": dto.NewDriverResponse(driver)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// UpdateLocation stores the latest GPS ping of the driver.
func (h *Driver) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_driver_location")

	var req dto.LocationUpdateRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	user := models.UserFromContext(ctx)
	if err := h.service.UpdateLocation(ctx, user.ID, *req.Latitude, *req.Longitude); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to update driver location", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"message": "location updated"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// SetOnlineStatus switches the driver between online and offline.
func (h *Driver) SetOnlineStatus(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "set_driver_online_status")

	var req dto.OnlineStatusRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	user := models.UserFromContext(ctx)
	status := types.OnlineStatus(req.Status)
	if err := h.service.SetOnlineStatus(ctx, user.ID, status); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to set driver online status", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"status": status}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "driver online status changed", "driver_id", user.ID, "status", status)
}

var driverSortSafeList = []string{"id", "created_at", "balance", "call_sign", "-id", "-created_at", "-balance", "-call_sign"}

// List returns the drivers of the dispatcher's taxipark.
func (h *Driver) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_drivers")

	v := validator.New()
	qs := r.URL.Query()

	page := readInt(qs, "page", 1, v)
	pageSize := readInt(qs, "page_size", 20, v)
	sort := readString(qs, "sort", "id")

	filters, err := models.NewFilters(page, pageSize, sort, driverSortSafeList)
	if err != nil {
		internalErrorResponse(w, "internal error")
		return
	}

	filters.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	user := models.UserFromContext(ctx)
	drivers, metadata, err := h.service.List(ctx, user.TaxiparkID, filters)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list drivers", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{
		"drivers":  dto.NewDriverResponses(drivers),
		"metadata": metadata,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// Get returns one driver of the dispatcher's taxipark.
func (h *Driver) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_driver")

	driverID, err := readID(r, "driver_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	driver, err := h.service.Get(ctx, driverID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get driver", err)
		domainErrorResponse(w, err)
		return
	}

	// Чужой парк не раскрываем.
	user := models.UserFromContext(ctx)
	if user.Role == types.RoleDispatcher && driver.TaxiparkID != user.TaxiparkID {
		errorResponse(w, http.StatusNotFound, types.ErrDriverNotFound.Error())
		return
	}

	response := envelope{"driver": dto.NewDriverResponse(driver)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// SetActive blocks or unblocks a driver. Dispatcher console action.
func (h *Driver) SetActive(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "set_driver_active")

	driverID, err := readID(r, "driver_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	var req dto.SetActiveRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	driver, err := h.admin.SetDriverActive(ctx, driverID, *req.IsActive)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to change driver active flag", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"driver": dto.NewDriverResponse(driver)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "driver active flag changed", "driver_id", driverID, "is_active", *req.IsActive)
}

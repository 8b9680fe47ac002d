package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/taxi-fleet-system/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/validator"
)

type ParkService interface {
	CreatePark(ctx context.Context, park *models.Taxipark) (*models.Taxipark, error)
	GetPark(ctx context.Context, id int64) (*models.Taxipark, error)
	UpdatePark(ctx context.Context, park *models.Taxipark) (*models.Taxipark, error)
	ListParks(ctx context.Context, filters models.Filters) ([]*models.Taxipark, models.Metadata, error)
	SetParkActive(ctx context.Context, id int64, isActive bool) error
	CreateDispatcher(ctx context.Context, d *models.Dispatcher, password string) (*models.Dispatcher, error)
	ListDispatchers(ctx context.Context, taxiparkID int64) ([]*models.Dispatcher, error)
	SetDispatcherActive(ctx context.Context, id int64, isActive bool) error
	ResetDispatcherPassword(ctx context.Context, id int64, password string) error
}

type AnalyticsService interface {
	ParkOverview(ctx context.Context, taxiparkID int64) (*models.ParkOverview, error)
}

type Admin struct {
	parks     ParkService
	analytics AnalyticsService
	l         logger.Logger
}

func NewAdmin(parks ParkService, analytics AnalyticsService, l logger.Logger) *Admin {
	return &Admin{
		parks:     parks,
		analytics: analytics,
		l:         l,
	}
}

func (h *Admin) CreatePark(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_taxipark")

	var req dto.CreateParkRequest
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

	park, err := h.parks.CreatePark(ctx, req.ToModel())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create taxipark", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"taxipark": dto.NewParkResponse(park)}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "taxipark created", "taxipark_id", park.ID, "name", park.Name)
}

func (h *Admin) GetPark(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_taxipark")

	parkID, err := readID(r, "park_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	park, err := h.parks.GetPark(ctx, parkID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get taxipark", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"taxipark": dto.NewParkResponse(park)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

func (h *Admin) UpdatePark(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_taxipark")

	parkID, err := readID(r, "park_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	var req dto.UpdateParkRequest
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

	park, err := h.parks.UpdatePark(ctx, req.ToModel(parkID))
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to update taxipark", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"taxipark": dto.NewParkResponse(park)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

var parkSortSafeList = []string{"id", "name", "created_at", "-id", "-name", "-created_at"}

func (h *Admin) ListParks(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_taxiparks")

	v := validator.New()
	qs := r.URL.Query()

	page := readInt(qs, "page", 1, v)
	pageSize := readInt(qs, "page_size", 20, v)
	sort := readString(qs, "sort", "id")

	filters, err := models.NewFilters(page, pageSize, sort, parkSortSafeList)
	if err != nil {
		internalErrorResponse(w, "internal error")
		return
	}

	filters.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	parks, metadata, err := h.parks.ListParks(ctx, filters)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list taxiparks", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{
		"taxiparks": dto.NewParkResponses(parks),
		"metadata":  metadata,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

func (h *Admin) SetParkActive(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "set_taxipark_active")

	parkID, err := readID(r, "park_id")
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

	if err := h.parks.SetParkActive(ctx, parkID, *req.IsActive); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to change taxipark active flag", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{
		"taxipark_id": parkID,
		"is_active":   *req.IsActive,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "taxipark active flag changed", "taxipark_id", parkID, "is_active", *req.IsActive)
}

func (h *Admin) CreateDispatcher(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_dispatcher")

	var req dto.CreateDispatcherRequest
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

	dispatcher, err := h.parks.CreateDispatcher(ctx, req.ToModel(), req.Password)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create dispatcher", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"dispatcher": dto.NewDispatcherResponse(dispatcher)}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "dispatcher created", "dispatcher_id", dispatcher.ID, "taxipark_id", dispatcher.TaxiparkID)
}

func (h *Admin) ListDispatchers(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_dispatchers")

	parkID, err := readID(r, "park_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	dispatchers, err := h.parks.ListDispatchers(ctx, parkID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list dispatchers", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"dispatchers": dto.NewDispatcherResponses(dispatchers)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

func (h *Admin) SetDispatcherActive(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "set_dispatcher_active")

	dispatcherID, err := readID(r, "dispatcher_id")
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

	if err := h.parks.SetDispatcherActive(ctx, dispatcherID, *req.IsActive); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to change dispatcher active flag", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{
		"dispatcher_id": dispatcherID,
		"is_active":     *req.IsActive,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

func (h *Admin) ResetDispatcherPassword(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "reset_dispatcher_password")

	dispatcherID, err := readID(r, "dispatcher_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	var req dto.ResetPasswordRequest
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

	if err := h.parks.ResetDispatcherPassword(ctx, dispatcherID, req.Password); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to reset dispatcher password", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"message": "password updated"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "dispatcher password reset", "dispatcher_id", dispatcherID)
}

// GetOverview returns order, driver and money aggregates for one taxipark.
func (h *Admin) GetOverview(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "admin_get_overview")

	parkID, err := readID(r, "park_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	overview, err := h.analytics.ParkOverview(ctx, parkID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get overview", err)
		domainErrorResponse(w, err)
		return
	}

	h.l.Debug(ctx, "fetched overview", "taxipark_id", parkID)

	response := envelope{"overview": overview}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

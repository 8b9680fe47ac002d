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

type OrderService interface {
	Accept(ctx context.Context, orderID, driverID int64) (*models.Order, error)
	TransitionByDriver(ctx context.Context, orderID, driverID int64, to types.OrderStatus) (*models.Order, error)
	TransitionByDispatcher(ctx context.Context, orderID int64, to types.OrderStatus) (*models.Order, error)
	Get(ctx context.Context, orderID int64) (*models.Order, error)
	GetForDriver(ctx context.Context, orderID, driverID int64) (*models.Order, error)
	UpdateDetails(ctx context.Context, order *models.Order) (*models.Order, error)
	ListByPark(ctx context.Context, taxiparkID int64, statuses []types.OrderStatus, filters models.Filters) ([]*models.Order, models.Metadata, error)
	ListByDriver(ctx context.Context, driverID int64, statuses []types.OrderStatus, filters models.Filters) ([]*models.Order, models.Metadata, error)
	ListByClientPhone(ctx context.Context, clientPhone string, filters models.Filters) ([]*models.Order, models.Metadata, error)
	ListAvailable(ctx context.Context, taxiparkID int64, tariff string) ([]*models.Order, error)
	Active(ctx context.Context, driverID int64) (*models.Order, error)
}

// DispatchService покрывает действия диспетчерского пульта, которые
// тянут за собой уведомления.
type DispatchService interface {
	CreateOrder(ctx context.Context, order *models.Order, driverID *int64, autoMatch bool) (*models.Order, error)
}

// OrderDriverReader is the narrow read used to resolve the driver's
// tariff for the available-orders feed.
type OrderDriverReader interface {
	Get(ctx context.Context, driverID int64) (*models.Driver, error)
}

type Order struct {
	service  OrderService
	dispatch DispatchService
	drivers  OrderDriverReader
	l        logger.Logger
}

func NewOrder(service OrderService, dispatch DispatchService, drivers OrderDriverReader, l logger.Logger) *Order {
	return &Order{
		service:  service,
		dispatch: dispatch,
		drivers:  drivers,
		l:        l,
	}
}

// Create registers a new order in the caller's taxipark. A dispatcher may
// assign a specific driver or request auto matching.
func (h *Order) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_order")

	var req dto.CreateOrderRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	user := models.UserFromContext(ctx)
	order := req.ToModel()
	order.TaxiparkID = user.TaxiparkID

	// Клиент из приложения заказывает сам на себя.
	if user.Role == types.RoleClient {
		order.ClientPhone = user.Phone
		req.DriverID = nil
	}

	created, err := h.dispatch.CreateOrder(ctx, order, req.DriverID, req.AutoMatch)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create order", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"order": dto.NewOrderResponse(created)}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "order created", "order_id", created.ID, "order_number", created.OrderNumber)
}

// Accept claims the order for the authenticated driver and charges the
// park commission.
func (h *Order) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "accept_order")

	orderID, err := readID(r, "order_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	user := models.UserFromContext(ctx)
	order, err := h.service.Accept(ctx, orderID, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to accept order", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"order": dto.NewOrderResponse(order)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "order accepted", "order_id", orderID, "driver_id", user.ID)
}

// UpdateStatusByDriver moves the order along the driver's state machine.
func (h *Order) UpdateStatusByDriver(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "driver_update_order_status")

	orderID, err := readID(r, "order_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	var req dto.UpdateStatusRequest
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

	user := models.UserFromContext(ctx)
	order, err := h.service.TransitionByDriver(ctx, orderID, user.ID, types.OrderStatus(req.Status))
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to update order status", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"order": dto.NewOrderResponse(order)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "order status updated", "order_id", orderID, "status", order.Status)
}

// UpdateStatusByDispatcher moves the order on behalf of the dispatcher.
// Setting "received" returns an assigned order back to the pool.
func (h *Order) UpdateStatusByDispatcher(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "dispatcher_update_order_status")

	orderID, err := readID(r, "order_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	var req dto.UpdateStatusRequest
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

	order, err := h.service.TransitionByDispatcher(ctx, orderID, types.OrderStatus(req.Status))
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to update order status", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"order": dto.NewOrderResponse(order)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "order status updated by dispatcher", "order_id", orderID, "status", order.Status)
}

// Get returns one order of the dispatcher's taxipark.
func (h *Order) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_order")

	orderID, err := readID(r, "order_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	order, err := h.service.Get(ctx, orderID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get order", err)
		domainErrorResponse(w, err)
		return
	}

	user := models.UserFromContext(ctx)
	if user.Role == types.RoleDispatcher && order.TaxiparkID != user.TaxiparkID {
		errorResponse(w, http.StatusNotFound, types.ErrOrderNotFound.Error())
		return
	}

	response := envelope{"order": dto.NewOrderResponse(order)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// UpdateDetails edits order fields while it is still waiting for a driver.
func (h *Order) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_order_details")

	orderID, err := readID(r, "order_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	var req dto.UpdateOrderRequest
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

	order, err := h.service.UpdateDetails(ctx, req.ToModel(orderID))
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to update order details", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"order": dto.NewOrderResponse(order)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

var orderSortSafeList = []string{"id", "created_at", "price", "-id", "-created_at", "-price"}

// ListParkOrders returns orders of the dispatcher's taxipark, optionally
// filtered by a comma-separated status list.
func (h *Order) ListParkOrders(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_park_orders")

	v := validator.New()
	qs := r.URL.Query()

	page := readInt(qs, "page", 1, v)
	pageSize := readInt(qs, "page_size", 20, v)
	sort := readString(qs, "sort", "-created_at")
	statuses := readStatuses(qs, v)

	filters, err := models.NewFilters(page, pageSize, sort, orderSortSafeList)
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
	orders, metadata, err := h.service.ListByPark(ctx, user.TaxiparkID, statuses, filters)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list park orders", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{
		"orders":   dto.NewOrderResponses(orders),
		"metadata": metadata,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// MyOrders returns the order history of the authenticated driver or client.
func (h *Order) MyOrders(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_my_orders")

	v := validator.New()
	qs := r.URL.Query()

	page := readInt(qs, "page", 1, v)
	pageSize := readInt(qs, "page_size", 20, v)
	sort := readString(qs, "sort", "-created_at")
	statuses := readStatuses(qs, v)

	filters, err := models.NewFilters(page, pageSize, sort, orderSortSafeList)
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

	var (
		orders   []*models.Order
		metadata models.Metadata
	)
	switch user.Role {
	case types.RoleClient:
		orders, metadata, err = h.service.ListByClientPhone(ctx, user.Phone, filters)
	default:
		orders, metadata, err = h.service.ListByDriver(ctx, user.ID, statuses, filters)
	}
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list orders", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{
		"orders":   dto.NewOrderResponses(orders),
		"metadata": metadata,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// Available returns unassigned orders matching the driver's tariff.
func (h *Order) Available(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_available_orders")

	user := models.UserFromContext(ctx)
	driver, err := h.drivers.Get(ctx, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get driver", err)
		domainErrorResponse(w, err)
		return
	}

	orders, err := h.service.ListAvailable(ctx, driver.TaxiparkID, driver.Tariff)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list available orders", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"orders": dto.NewOrderResponses(orders)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// ActiveOrder returns the driver's current open order, if any.
func (h *Order) ActiveOrder(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_active_order")

	user := models.UserFromContext(ctx)
	order, err := h.service.Active(ctx, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get active order", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"order": dto.NewOrderResponse(order)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

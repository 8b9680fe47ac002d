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

type LedgerService interface {
	Balance(ctx context.Context, driverID int64) (float64, error)
	History(ctx context.Context, driverID int64, filters models.Filters) ([]*models.Transaction, models.Metadata, error)
}

// TopUpService пополняет баланс и рассылает уведомление водителю.
type TopUpService interface {
	TopUpDriver(ctx context.Context, driverID int64, amount float64, description string) (float64, error)
}

type Balance struct {
	ledger LedgerService
	topups TopUpService
	l      logger.Logger
}

func NewBalance(ledger LedgerService, topups TopUpService, l logger.Logger) *Balance {
	return &Balance{
		ledger: ledger,
		topups: topups,
		l:      l,
	}
}

// My returns the authenticated driver's current balance.
func (h *Balance) My(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_balance")

	user := models.UserFromContext(ctx)
	balance, err := h.ledger.Balance(ctx, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get balance", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"balance": balance}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

var transactionSortSafeList = []string{"id", "created_at", "amount", "-id", "-created_at", "-amount"}

// History returns the driver's ledger entries, newest first by default.
func (h *Balance) History(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_balance_history")

	v := validator.New()
	qs := r.URL.Query()

	page := readInt(qs, "page", 1, v)
	pageSize := readInt(qs, "page_size", 20, v)
	sort := readString(qs, "sort", "-created_at")

	filters, err := models.NewFilters(page, pageSize, sort, transactionSortSafeList)
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
	txs, metadata, err := h.ledger.History(ctx, user.ID, filters)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get balance history", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{
		"transactions": dto.NewTransactionResponses(txs),
		"metadata":     metadata,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// TopUp credits a driver's balance. Dispatcher console action.
func (h *Balance) TopUp(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "topup_driver_balance")

	driverID, err := readID(r, "driver_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	var req dto.TopUpRequest
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

	balance, err := h.topups.TopUpDriver(ctx, driverID, req.Amount, req.Description)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to top up driver balance", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{
		"driver_id": driverID,
		"balance":   balance,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "driver balance topped up", "driver_id", driverID, "amount", req.Amount)
}

// DriverBalance returns another driver's balance for the dispatcher console.
func (h *Balance) DriverBalance(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_driver_balance")

	driverID, err := readID(r, "driver_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	balance, err := h.ledger.Balance(ctx, driverID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get driver balance", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{
		"driver_id": driverID,
		"balance":   balance,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

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

type ClientService interface {
	Register(ctx context.Context, client *models.Client) (*models.Client, error)
	Get(ctx context.Context, clientID int64) (*models.Client, error)
	UpdateProfile(ctx context.Context, clientID int64, name string) (*models.Client, error)
}

type Client struct {
	service ClientService
	l       logger.Logger
}

func NewClient(service ClientService, l logger.Logger) *Client {
	return &Client{
		service: service,
		l:       l,
	}
}

// Register creates a client account. Public: the client signs up from the
// mobile app and then logs in with an SMS code.
func (h *Client) Register(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "register_client")

	var req dto.RegisterClientRequest
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

	client, err := h.service.Register(ctx, req.ToModel())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to register a new client", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"client": dto.NewClientResponse(client)}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "client registered successfully", "client_id", client.ID)
}

// Me returns the profile of the authenticated client.
func (h *Client) Me(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_client_profile")

	user := models.UserFromContext(ctx)
	client, err := h.service.Get(ctx, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get client profile", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"client": dto.NewClientResponse(client)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// UpdateProfile updates the authenticated client's name. Phone and taxipark
// are immutable.
func (h *Client) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_client_profile")

	var req dto.UpdateClientProfileRequest
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
	client, err := h.service.UpdateProfile(ctx, user.ID, req.Name)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to update client profile", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"client": dto.NewClientResponse(client)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

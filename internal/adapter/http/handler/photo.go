package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/taxi-fleet-system/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/service/photo"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/validator"
)

// maxPhotoFormMemory ограничивает буферизацию multipart-формы в памяти.
const maxPhotoFormMemory = 32 << 20

type PhotoService interface {
	Submit(ctx context.Context, driverID int64, uploads []photo.Upload) (*models.PhotoVerification, error)
	Decide(ctx context.Context, verificationID int64, approve bool, reason string, processedBy int64) (*models.PhotoVerification, error)
	Status(ctx context.Context, driverID int64) (*models.PhotoVerification, error)
	ListPending(ctx context.Context, taxiparkID int64) ([]*models.PhotoVerification, error)
}

type Photo struct {
	service PhotoService
	l       logger.Logger
}

func NewPhoto(service PhotoService, l logger.Logger) *Photo {
	return &Photo{
		service: service,
		l:       l,
	}
}

// Submit accepts a multipart form where each file field name is a photo
// slot (front, back, salon, ...) and queues the set for review.
func (h *Photo) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "submit_photo_verification")

	if err := r.ParseMultipartForm(maxPhotoFormMemory); err != nil {
		badRequestResponse(w, "request must be a valid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	var uploads []photo.Upload
	for slot, headers := range r.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		file, err := headers[0].Open()
		if err != nil {
			h.l.Error(wrap.ErrorCtx(ctx, err), "failed to open uploaded file", err, "slot", slot)
			badRequestResponse(w, "failed to read uploaded file")
			return
		}
		defer file.Close()

		uploads = append(uploads, photo.Upload{
			Slot:     slot,
			FileName: headers[0].Filename,
			Content:  file,
		})
	}

	user := models.UserFromContext(ctx)
	verification, err := h.service.Submit(ctx, user.ID, uploads)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to submit photo verification", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"verification": dto.NewVerificationResponse(verification)}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "photo verification submitted", "driver_id", user.ID, "verification_id", verification.ID)
}

// MyStatus returns the driver's latest verification state.
func (h *Photo) MyStatus(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_photo_verification_status")

	user := models.UserFromContext(ctx)
	verification, err := h.service.Status(ctx, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get verification status", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"verification": dto.NewVerificationResponse(verification)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// Decide approves or rejects a pending verification.
func (h *Photo) Decide(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "decide_photo_verification")

	verificationID, err := readID(r, "verification_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	var req dto.DecideVerificationRequest
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
	verification, err := h.service.Decide(ctx, verificationID, *req.Approve, req.Reason, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to decide photo verification", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"verification": dto.NewVerificationResponse(verification)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "photo verification decided",
		"verification_id", verificationID,
		"status", verification.Status,
		"processed_by", user.ID,
	)
}

// ListPending returns pending verifications of the dispatcher's taxipark.
func (h *Photo) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_pending_photo_verifications")

	user := models.UserFromContext(ctx)
	verifications, err := h.service.ListPending(ctx, user.TaxiparkID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list pending verifications", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"verifications": dto.NewVerificationResponses(verifications)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

package dto

import (
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/validator"
)

type CreateParkRequest struct {
	Name              string  `json:"name"`
	City              string  `json:"city"`
	ContactPhone      string  `json:"contact_phone"`
	CommissionPercent float64 `json:"commission_percent"`
}

func (r *CreateParkRequest) Validate(v *validator.Validator) {
	v.Check(r.Name != "", "name", "must be provided")
	v.Check(len(r.Name) <= 100, "name", "must not be more than 100 characters long")
	v.Check(len(r.City) <= 100, "city", "must not be more than 100 characters long")
	v.Check(r.CommissionPercent >= 0 && r.CommissionPercent <= 100, "commission_percent", "must be between 0 and 100")
}

func (r *CreateParkRequest) ToModel() *models.Taxipark {
	return &models.Taxipark{
		Name:              r.Name,
		City:              r.City,
		ContactPhone:      r.ContactPhone,
		CommissionPercent: r.CommissionPercent,
	}
}

type UpdateParkRequest struct {
	Name              string  `json:"name"`
	City              string  `json:"city"`
	ContactPhone      string  `json:"contact_phone"`
	CommissionPercent float64 `json:"commission_percent"`
}

func (r *UpdateParkRequest) Validate(v *validator.Validator) {
	v.Check(r.Name != "", "name", "must be provided")
	v.Check(len(r.Name) <= 100, "name", "must not be more than 100 characters long")
	v.Check(r.CommissionPercent >= 0 && r.CommissionPercent <= 100, "commission_percent", "must be between 0 and 100")
}

func (r *UpdateParkRequest) ToModel(parkID int64) *models.Taxipark {
	return &models.Taxipark{
		ID:                parkID,
		Name:              r.Name,
		City:              r.City,
		ContactPhone:      r.ContactPhone,
		CommissionPercent: r.CommissionPercent,
	}
}

type ParkResponse struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	City              string     `json:"city,omitempty"`
	ContactPhone      string     `json:"contact_phone,omitempty"`
	CommissionPercent float64    `json:"commission_percent"`
	IsActive          bool       `json:"is_active"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`

	DriverCount      int64 `json:"driver_count"`
	ClientCount      int64 `json:"client_count"`
	ActiveOrderCount int64 `json:"active_order_count"`
}

func NewParkResponse(p *models.Taxipark) ParkResponse {
	return ParkResponse{
		ID:                p.ID,
		Name:              p.Name,
		City:              p.City,
		ContactPhone:      p.ContactPhone,
		CommissionPercent: p.CommissionPercent,
		IsActive:          p.IsActive,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,

		DriverCount:      p.DriverCount,
		ClientCount:      p.ClientCount,
		ActiveOrderCount: p.ActiveOrderCount,
	}
}

func NewParkResponses(parks []*models.Taxipark) []ParkResponse {
	out := make([]ParkResponse, 0, len(parks))
	for _, p := range parks {
		out = append(out, NewParkResponse(p))
	}
	return out
}

type CreateDispatcherRequest struct {
	Login      string `json:"login"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	TaxiparkID int64  `json:"taxipark_id"`
}

func (r *CreateDispatcherRequest) Validate(v *validator.Validator) {
	v.Check(r.Login != "", "login", "must be provided")
	v.Check(len(r.Login) <= 50, "login", "must not be more than 50 characters long")
	v.Check(r.Password != "", "password", "must be provided")
	v.Check(len(r.Password) >= 8, "password", "must be at least 8 bytes long")
	v.Check(len(r.Password) <= 50, "password", "must not be more than 50 bytes long")
	v.Check(r.TaxiparkID > 0, "taxipark_id", "must be provided")
}

func (r *CreateDispatcherRequest) ToModel() *models.Dispatcher {
	return &models.Dispatcher{
		Login:      r.Login,
		FullName:   r.FullName,
		TaxiparkID: r.TaxiparkID,
	}
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

func (r *ResetPasswordRequest) Validate(v *validator.Validator) {
	v.Check(r.Password != "", "password", "must be provided")
	v.Check(len(r.Password) >= 8, "password", "must be at least 8 bytes long")
	v.Check(len(r.Password) <= 50, "password", "must not be more than 50 bytes long")
}

type DispatcherResponse struct {
	ID         int64     `json:"id"`
	Login      string    `json:"login"`
	FullName   string    `json:"full_name,omitempty"`
	TaxiparkID int64     `json:"taxipark_id"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewDispatcherResponse(d *models.Dispatcher) DispatcherResponse {
	return DispatcherResponse{
		ID:         d.ID,
		Login:      d.Login,
		FullName:   d.FullName,
		TaxiparkID: d.TaxiparkID,
		IsActive:   d.IsActive,
		CreatedAt:  d.CreatedAt,
	}
}

func NewDispatcherResponses(ds []*models.Dispatcher) []DispatcherResponse {
	out := make([]DispatcherResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, NewDispatcherResponse(d))
	}
	return out
}

type DecideVerificationRequest struct {
	Approve *bool  `json:"approve"`
	Reason  string `json:"reason,omitempty"`
}

func (r *DecideVerificationRequest) Validate(v *validator.Validator) {
	v.Check(r.Approve != nil, "approve", "must be provided")
	if r.Approve != nil && !*r.Approve {
		v.Check(r.Reason != "", "reason", "must be provided when rejecting")
	}
	v.Check(len(r.Reason) <= 500, "reason", "must not be more than 500 characters long")
}

type VerificationResponse struct {
	ID       int64 `json:"id"`
	DriverID int64 `json:"driver_id"`

	Photos map[string]string `json:"photos,omitempty"`

	Status          types.VerificationStatus `json:"status"`
	RejectionReason string                   `json:"rejection_reason,omitempty"`
	ProcessedBy     *int64                   `json:"processed_by,omitempty"`
	ProcessedAt     *time.Time               `json:"processed_at,omitempty"`
	SubmittedAt     time.Time                `json:"submitted_at"`
}

func NewVerificationResponse(pv *models.PhotoVerification) VerificationResponse {
	return VerificationResponse{
		ID:       pv.ID,
		DriverID: pv.DriverID,

		Photos: pv.Photos,

		Status:          pv.Status,
		RejectionReason: pv.RejectionReason,
		ProcessedBy:     pv.ProcessedBy,
		ProcessedAt:     pv.ProcessedAt,
		SubmittedAt:     pv.SubmittedAt,
	}
}

func NewVerificationResponses(pvs []*models.PhotoVerification) []VerificationResponse {
	out := make([]VerificationResponse, 0, len(pvs))
	for _, pv := range pvs {
		out = append(out, NewVerificationResponse(pv))
	}
	return out
}

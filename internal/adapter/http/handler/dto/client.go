package dto

import (
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/validator"
)

type RegisterClientRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	TaxiparkID int64  `json:"taxipark_id"`
}

func (r *RegisterClientRequest) Validate(v *validator.Validator) {
	v.Check(r.Name != "", "name", "must be provided")
	v.Check(len(r.Name) < 100, "name", "must be less than 100 characters")

	v.Check(r.Phone != "", "phone", "must be provided")

	v.Check(r.TaxiparkID > 0, "taxipark_id", "must be provided")
}

func (r *RegisterClientRequest) ToModel() *models.Client {
	return &models.Client{
		Name:        r.Name,
		PhoneNumber: r.Phone,
		TaxiparkID:  r.TaxiparkID,
	}
}

type UpdateClientProfileRequest struct {
	Name string `json:"name"`
}

func (r *UpdateClientProfileRequest) Validate(v *validator.Validator) {
	v.Check(r.Name != "", "name", "must be provided")
	v.Check(len(r.Name) < 100, "name", "must be less than 100 characters")
}

type ClientResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	TaxiparkID int64     `json:"taxipark_id"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewClientResponse(c *models.Client) ClientResponse {
	return ClientResponse{
		ID:         c.ID,
		Name:       c.Name,
		Phone:      c.PhoneNumber,
		TaxiparkID: c.TaxiparkID,
		IsActive:   c.IsActive,
		CreatedAt:  c.CreatedAt,
	}
}

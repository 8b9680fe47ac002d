package models

import (
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

type PhotoVerification struct {
	ID       int64
	DriverID int64

	// Photos - слот (front, back, salon, ...) → путь к файлу. Хранится jsonb.
	Photos map[string]string

	Status          types.VerificationStatus
	RejectionReason string
	ProcessedBy     *int64
	ProcessedAt     *time.Time
	SubmittedAt     time.Time
}

package models

import "time"

type Client struct {
	ID          int64
	Name        string
	PhoneNumber string
	TaxiparkID  int64
	IsActive    bool
	FCMToken    string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

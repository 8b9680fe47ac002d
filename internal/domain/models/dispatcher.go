package models

import "time"

type Dispatcher struct {
	ID           int64
	Login        string
	PasswordHash string
	FullName     string
	TaxiparkID   int64
	IsActive     bool
	CreatedAt    time.Time
}

type Superadmin struct {
	ID           int64
	Login        string
	PasswordHash string
	FullName     string
	CreatedAt    time.Time
}

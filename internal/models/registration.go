package models

import (
	"time"

	"github.com/google/uuid"
)

// Registration status values. Only StatusConfirmed is ever assigned; the others are accepted by the schema.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCheckedIn = "checked-in"
)

// Registration is a bootcamp registrant record.
type Registration struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"firstName"`
	MiddleName  string    `json:"middleName,omitempty"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	Course      string    `json:"course"`
	HasLaptop   bool      `json:"hasLaptop"`
	Status      string    `json:"status"`
	QRCode      string    `json:"qrCode,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RegistrationSummary is the public view returned after a successful registration.
type RegistrationSummary struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Course string    `json:"course"`
}

// CourseCount is one row of registration statistics.
type CourseCount struct {
	Course     string `json:"course"`
	Total      int    `json:"total"`
	WithLaptop int    `json:"withLaptop"`
}

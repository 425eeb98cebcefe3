package domain

import "time"

// Organization is the tenant boundary. Every other entity carries an
// organization id and is never readable or writable across it.
type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	PhoneNumber string    `json:"phone_number"`
	Email       string    `json:"email"`
	CreatedOn   time.Time `json:"created_on"`
}

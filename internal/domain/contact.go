package domain

import "time"

type Contact struct {
	ID         int64     `json:"contact_id"`
	Name       string    `json:"name"`
	Phone      *string   `json:"phone"`
	Address    *string   `json:"address"`
	IsSupplier bool      `json:"is_supplier"`
	IsCustomer bool      `json:"is_customer"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

package models

import "time"

// Product represents a product shown in the storefront grid.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string    `json:"name" gorm:"type:varchar(100)" validate:"required,min=3,max=100"`
	Description string    `json:"description" validate:"omitempty,max=500"`
	Tag         string    `json:"tag" gorm:"index;type:varchar(50)" validate:"required,max=50,ne=all"`
	Price       float64   `json:"price" validate:"gte=0"`
	Image       string    `json:"image" validate:"omitempty,max=500"`
	Seq         int64     `json:"-" gorm:"index"` // insertion position, the grid order
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

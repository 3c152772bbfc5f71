package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry. Price is in paise.
type Product struct {
	ID          uuid.UUID `json:"id" yaml:"-"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Category    string    `json:"category" yaml:"category"`
	Price       int64     `json:"price" yaml:"price"`
	VolumeML    int       `json:"volume_ml" yaml:"volume_ml"`
	ABV         float64   `json:"abv" yaml:"abv"`
	Image       string    `json:"image,omitempty" yaml:"image"`
	Stock       int       `json:"stock" yaml:"stock"`
	Active      bool      `json:"active" yaml:"-"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-"`
}

// ProductFilter narrows a catalog listing
type ProductFilter struct {
	Category   string
	Query      string
	ActiveOnly bool
	Page       int
	PageSize   int
}

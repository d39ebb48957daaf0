package models

// Product represents a product in the catalog.
// Images holds stored media filenames; their order is the display order,
// and the first entry is the cover image.
type Product struct {
	ID          string   `json:"id" validate:"omitempty,uuid"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"gte=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Pinned      bool     `json:"pinned"`
	Images      []string `json:"images"`
}

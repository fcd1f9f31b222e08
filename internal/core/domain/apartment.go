package domain

import (
	"io"
	"time"
)

// Apartment is the primary resource the client browses and manages.
// IDs are assigned by the server on creation; the client only ever
// holds a transient snapshot fetched on demand. Price travels as its
// decimal-string form and is kept that way to avoid float drift.
type Apartment struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	Description   string    `json:"description"`
	NumberOfRooms int       `json:"numberOfRooms"`
	Price         string    `json:"price"`
	IsAvailable   bool      `json:"isAvailable"`
	ImageURL      string    `json:"imageUrl"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Attachment is an optional binary part of a mutation payload,
// consumed once during transmission.
type Attachment struct {
	Filename string
	Reader   io.Reader
}

// ApartmentForm carries the client-constructed fields for create and
// update calls. The optional image forces a multipart body; numeric
// fields are serialized as decimal strings inside that body.
type ApartmentForm struct {
	Name          string  `validate:"required"`
	Address       string  `validate:"required"`
	Description   string  `validate:"required"`
	NumberOfRooms int     `validate:"required,gt=0"`
	Price         float64 `validate:"required,gt=0"`
	Image         *Attachment
}

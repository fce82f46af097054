// Package store persists favorite places.
package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	DefaultName        = "DefaultName"
	DefaultDescription = "DefaultDescription"
)

var (
	// ErrNotFound is returned when no favorite has the given id.
	ErrNotFound = errors.New("favorite not found")
)

// Favorite is a saved place the user can jump back to.
type Favorite struct {
	ID               string    `json:"id"`
	PlaceName        string    `json:"placeName"`
	PlaceDescription string    `json:"placeDescription"`
	CreatedAt        time.Time `json:"createdAt"`
}

// NewFavorite builds an unsaved favorite, filling blank fields with defaults.
func NewFavorite(name, description string) Favorite {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = DefaultDescription
	}
	return Favorite{PlaceName: name, PlaceDescription: description}
}

// FavoriteStore lists favorites in creation order.
type FavoriteStore interface {
	List(ctx context.Context) ([]Favorite, error)
	Get(ctx context.Context, id string) (Favorite, error)
	// Create assigns an id and creation time when the store owns them.
	Create(ctx context.Context, f Favorite) (Favorite, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

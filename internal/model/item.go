package model

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places a price may carry.
const PriceScale = 2

// maxPrice is the exclusive upper bound the remote NUMERIC(12, 2) column can hold.
var maxPrice = decimal.New(1, 12-PriceScale)

// Item is a catalog entry. ImageURL is the primary image, ImageURLs holds the
// secondaries in display order.
type Item struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	ImageURLs   []string        `json:"imageUrls"`
	IsSelected  bool            `json:"isSelected"`
}

// Gallery errors.
var (
	ErrLastImage    = errors.New("item must keep at least one image")
	ErrImageIndex   = errors.New("image index out of range")
	ErrMissingImage = errors.New("item has no primary image")
	ErrInvalidItem  = errors.New("invalid item")
)

// Validate checks the invariants an item must satisfy before it is stored.
func (it *Item) Validate() error {
	if it.ID == "" {
		return fmt.Errorf("%w: id required", ErrInvalidItem)
	}
	if it.Title == "" {
		return fmt.Errorf("%w: title required", ErrInvalidItem)
	}
	if it.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	}
	if !it.Price.Equal(it.Price.Round(PriceScale)) {
		return fmt.Errorf("%w: price must have at most %d decimal places", ErrInvalidItem, PriceScale)
	}
	if it.Price.GreaterThanOrEqual(maxPrice) {
		return fmt.Errorf("%w: price too large", ErrInvalidItem)
	}
	if it.ImageURL == "" {
		return ErrMissingImage
	}
	return nil
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() Item {
	c := *it
	c.ImageURLs = slices.Clone(it.ImageURLs)
	if c.ImageURLs == nil {
		c.ImageURLs = []string{}
	}
	return c
}

// Images returns the full gallery: the primary followed by the secondaries.
func (it *Item) Images() []string {
	images := make([]string, 0, len(it.ImageURLs)+1)
	if it.ImageURL != "" {
		images = append(images, it.ImageURL)
	}
	return append(images, it.ImageURLs...)
}

// AddImage appends a secondary image. The first image becomes the primary.
func (it *Item) AddImage(url string) {
	if it.ImageURL == "" {
		it.ImageURL = url
		return
	}
	it.ImageURLs = append(it.ImageURLs, url)
}

// RemoveImage removes the gallery image at index (0 is the primary). Removing
// the primary promotes the first secondary. The sole image cannot be removed.
func (it *Item) RemoveImage(index int) error {
	images := it.Images()
	if index < 0 || index >= len(images) {
		return ErrImageIndex
	}
	if len(images) == 1 {
		return ErrLastImage
	}
	it.setGallery(slices.Delete(images, index, index+1))
	return nil
}

// MoveImage moves the gallery image at from to position to. Whatever lands at
// position 0 becomes the primary.
func (it *Item) MoveImage(from, to int) error {
	images := it.Images()
	if from < 0 || from >= len(images) || to < 0 || to >= len(images) {
		return ErrImageIndex
	}
	if from == to {
		return nil
	}
	img := images[from]
	images = slices.Delete(images, from, from+1)
	images = slices.Insert(images, to, img)
	it.setGallery(images)
	return nil
}

func (it *Item) setGallery(images []string) {
	it.ImageURL = images[0]
	it.ImageURLs = slices.Clone(images[1:])
}

package model

import (
	"errors"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
)

func galleryItem(images ...string) Item {
	it := Item{ID: "a", Title: "Lamp", Price: decimal.NewFromInt(10), IsSelected: true}
	for _, img := range images {
		it.AddImage(img)
	}
	return it
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Item)
		wantErr bool
	}{
		{"valid", func(*Item) {}, false},
		{"missing id", func(it *Item) { it.ID = "" }, true},
		{"missing title", func(it *Item) { it.Title = "" }, true},
		{"negative price", func(it *Item) { it.Price = decimal.NewFromInt(-1) }, true},
		{"zero price", func(it *Item) { it.Price = decimal.Zero }, false},
		{"two decimals", func(it *Item) { it.Price = decimal.RequireFromString("24.50") }, false},
		{"trailing zero third decimal", func(it *Item) { it.Price = decimal.RequireFromString("24.500") }, false},
		{"three decimals", func(it *Item) { it.Price = decimal.RequireFromString("24.505") }, true},
		{"largest price", func(it *Item) { it.Price = decimal.RequireFromString("9999999999.99") }, false},
		{"too large", func(it *Item) { it.Price = decimal.RequireFromString("10000000000") }, true},
		{"no image", func(it *Item) { it.ImageURL = "" }, true},
	}

	for _, tt := range tests {
		it := galleryItem("p")
		tt.mutate(&it)
		err := it.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestRemoveSoleImageRefused(t *testing.T) {
	it := galleryItem("p")
	err := it.RemoveImage(0)
	if !errors.Is(err, ErrLastImage) {
		t.Fatalf("expected ErrLastImage, got %v", err)
	}
	if it.ImageURL != "p" || len(it.ImageURLs) != 0 {
		t.Errorf("item changed after refused removal: %+v", it)
	}
}

func TestRemovePrimaryPromotesFirstSecondary(t *testing.T) {
	it := galleryItem("p", "s1", "s2")
	if err := it.RemoveImage(0); err != nil {
		t.Fatalf("RemoveImage: %v", err)
	}
	if it.ImageURL != "s1" {
		t.Errorf("expected s1 promoted, got %q", it.ImageURL)
	}
	if !slices.Equal(it.ImageURLs, []string{"s2"}) {
		t.Errorf("unexpected secondaries: %v", it.ImageURLs)
	}
}

func TestRemoveSecondary(t *testing.T) {
	it := galleryItem("p", "s1", "s2")
	if err := it.RemoveImage(2); err != nil {
		t.Fatalf("RemoveImage: %v", err)
	}
	if !slices.Equal(it.Images(), []string{"p", "s1"}) {
		t.Errorf("unexpected gallery: %v", it.Images())
	}

	if err := it.RemoveImage(5); !errors.Is(err, ErrImageIndex) {
		t.Errorf("expected ErrImageIndex, got %v", err)
	}
}

func TestMoveImage(t *testing.T) {
	it := galleryItem("p", "s1", "s2")
	if err := it.MoveImage(2, 0); err != nil {
		t.Fatalf("MoveImage: %v", err)
	}
	if !slices.Equal(it.Images(), []string{"s2", "p", "s1"}) {
		t.Errorf("unexpected gallery: %v", it.Images())
	}
	if it.ImageURL != "s2" {
		t.Errorf("expected s2 as primary, got %q", it.ImageURL)
	}

	if err := it.MoveImage(0, 3); !errors.Is(err, ErrImageIndex) {
		t.Errorf("expected ErrImageIndex, got %v", err)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	it := galleryItem("p", "s1")
	c := it.Clone()
	c.ImageURLs[0] = "changed"
	if it.ImageURLs[0] != "s1" {
		t.Error("clone shares the secondary image slice")
	}

	empty := (&Item{ID: "b"}).Clone()
	if empty.ImageURLs == nil {
		t.Error("clone should normalize nil secondaries to an empty slice")
	}
}

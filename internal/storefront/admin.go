package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/erazemk/vitrina/internal/cart"
	"github.com/erazemk/vitrina/internal/imaging"
	"github.com/erazemk/vitrina/internal/model"
)

func requireAdmin(sess *Session) error {
	if sess == nil || !sess.Admin {
		return ErrForbidden
	}
	return nil
}

// UploadImage creates a new visible item from an image. The image is encoded
// and described before anything is stored; a failure at any step creates no
// item.
func (c *Controller) UploadImage(ctx context.Context, sess *Session, r io.Reader) (model.Item, error) {
	if err := requireAdmin(sess); err != nil {
		return model.Item{}, err
	}

	img, err := imaging.Encode(r, c.opts.MaxImageWidth, c.opts.MaxImageHeight)
	if err != nil {
		return model.Item{}, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	details, err := c.describer.Describe(ctx, img.Data, img.MIME)
	if err != nil {
		return model.Item{}, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	item := model.Item{
		ID:          c.newID(),
		Title:       details.Title,
		Description: details.Description,
		Price:       c.opts.DefaultPrice,
		ImageURL:    img.DataURI(),
		ImageURLs:   []string{},
		IsSelected:  true,
	}
	if err := c.catalog.Save(ctx, item); err != nil {
		return model.Item{}, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	c.prepend(item)
	slog.Info("item created", "item", item.ID, "title", item.Title, "mime", img.MIME)
	return item.Clone(), nil
}

// UpdateItem saves an edited item. The in-memory catalog and the session's
// cart only change after the save succeeded.
func (c *Controller) UpdateItem(ctx context.Context, sess *Session, item model.Item) (model.Item, error) {
	if err := requireAdmin(sess); err != nil {
		return model.Item{}, err
	}
	if _, ok := c.lookup(item.ID); !ok {
		return model.Item{}, ErrNotFound
	}

	item = item.Clone()
	if err := item.Validate(); err != nil {
		return model.Item{}, err
	}
	if err := c.catalog.Save(ctx, item); err != nil {
		return model.Item{}, err
	}

	c.replace(item)
	c.eachCart(sess, func(ct *cart.Cart) { ct.Reconcile(item) })
	slog.Info("item updated", "item", item.ID)
	return item.Clone(), nil
}

// edit loads the item, applies fn and saves the result. fn errors leave the
// item unchanged.
func (c *Controller) edit(ctx context.Context, sess *Session, id string, fn func(*model.Item) error) (model.Item, error) {
	if err := requireAdmin(sess); err != nil {
		return model.Item{}, err
	}
	item, ok := c.lookup(id)
	if !ok {
		return model.Item{}, ErrNotFound
	}
	if err := fn(&item); err != nil {
		return model.Item{}, err
	}
	return c.UpdateItem(ctx, sess, item)
}

// SetVisibility shows or hides an item in non-admin views.
func (c *Controller) SetVisibility(ctx context.Context, sess *Session, id string, visible bool) (model.Item, error) {
	return c.edit(ctx, sess, id, func(it *model.Item) error {
		it.IsSelected = visible
		return nil
	})
}

// AddImage encodes an image and appends it to the item's gallery.
func (c *Controller) AddImage(ctx context.Context, sess *Session, id string, r io.Reader) (model.Item, error) {
	if err := requireAdmin(sess); err != nil {
		return model.Item{}, err
	}
	img, err := imaging.Encode(r, c.opts.MaxImageWidth, c.opts.MaxImageHeight)
	if err != nil {
		return model.Item{}, fmt.Errorf("%w: %w", ErrUpload, err)
	}
	return c.edit(ctx, sess, id, func(it *model.Item) error {
		it.AddImage(img.DataURI())
		return nil
	})
}

// RemoveImage removes the gallery image at index; 0 is the primary. Removing
// the only image is refused with model.ErrLastImage.
func (c *Controller) RemoveImage(ctx context.Context, sess *Session, id string, index int) (model.Item, error) {
	return c.edit(ctx, sess, id, func(it *model.Item) error {
		return it.RemoveImage(index)
	})
}

// MoveImage reorders the gallery.
func (c *Controller) MoveImage(ctx context.Context, sess *Session, id string, from, to int) (model.Item, error) {
	return c.edit(ctx, sess, id, func(it *model.Item) error {
		return it.MoveImage(from, to)
	})
}

// DeleteItem removes an item from the catalog and the session's cart. When
// the remote delete fails the item stays listed.
func (c *Controller) DeleteItem(ctx context.Context, sess *Session, id string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if _, ok := c.lookup(id); !ok {
		return ErrNotFound
	}
	if err := c.catalog.Remove(ctx, id); err != nil {
		return err
	}

	c.drop(id)
	c.eachCart(sess, func(ct *cart.Cart) { ct.Remove(id) })
	slog.Info("item deleted", "item", id)
	return nil
}

// Export renders the full catalog as indented JSON.
func (c *Controller) Export(sess *Session) ([]byte, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c.Items(sess, "")); err != nil {
		return nil, fmt.Errorf("encoding catalog: %w", err)
	}
	return buf.Bytes(), nil
}

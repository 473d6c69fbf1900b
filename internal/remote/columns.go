package remote

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/erazemk/vitrina/internal/model"
)

// Remote column names. The table uses lowercase concatenated names rather
// than the item's field names.
const (
	colID          = "id"
	colTitle       = "title"
	colDescription = "description"
	colPrice       = "price"
	colImageURL    = "imageurl"
	colImageURLs   = "imageurls"
	colIsSelected  = "isselected"
)

// itemFromRow maps a row read by column name to an item. Absent columns take
// their defaults: visible, and no secondary images.
func itemFromRow(row map[string]any) (model.Item, error) {
	item := model.Item{
		ID:          stringValue(row[colID]),
		Title:       stringValue(row[colTitle]),
		Description: stringValue(row[colDescription]),
		ImageURL:    stringValue(row[colImageURL]),
		ImageURLs:   stringSlice(row[colImageURLs]),
		IsSelected:  true,
	}
	if item.ImageURL == "" {
		// Tables created by hand sometimes kept the camelCase column.
		item.ImageURL = stringValue(row["imageUrl"])
	}
	if v, ok := row[colIsSelected].(bool); ok {
		item.IsSelected = v
	}

	price, err := decimalValue(row[colPrice])
	if err != nil {
		return model.Item{}, fmt.Errorf("decoding price of item %s: %w", item.ID, err)
	}
	item.Price = price
	return item, nil
}

// rowFromItem returns the upsert arguments in column order.
func rowFromItem(item model.Item) []any {
	urls := item.ImageURLs
	if urls == nil {
		urls = []string{}
	}
	return []any{
		item.ID,
		item.Title,
		item.Description,
		item.Price.String(),
		item.ImageURL,
		urls,
		item.IsSelected,
	}
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// stringSlice coerces an array column (json array, text[] or raw JSON text)
// into a slice. Anything that isn't an array becomes an empty slice.
func stringSlice(v any) []string {
	out := []string{}
	switch a := v.(type) {
	case []string:
		return append(out, a...)
	case []any:
		for _, e := range a {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return decodeJSONArray([]byte(a))
	case []byte:
		return decodeJSONArray(a)
	default:
		return out
	}
}

func decodeJSONArray(data []byte) []string {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return []string{}
	}
	return stringSlice(raw)
}

func decimalValue(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, nil
	case pgtype.Numeric:
		if !n.Valid {
			return decimal.Zero, nil
		}
		if n.NaN || n.InfinityModifier != pgtype.Finite {
			return decimal.Zero, fmt.Errorf("non-finite numeric")
		}
		if n.Int == nil {
			return decimal.Zero, nil
		}
		return decimal.NewFromBigInt(new(big.Int).Set(n.Int), n.Exp), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case float32:
		return decimal.NewFromFloat32(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case int32:
		return decimal.NewFromInt32(n), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(n))
	default:
		return decimal.Zero, fmt.Errorf("unsupported price type %T", v)
	}
}

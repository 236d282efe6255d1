package data

import "encoding/json"

// Item is one content record within a content type. The store is
// schema-agnostic: whatever JSON object the client sends is persisted
// verbatim. Only the numeric "id" field is interpreted.
type Item map[string]interface{}

// ID returns the item's numeric id and whether one was present.
func (it Item) ID() (int64, bool) {
	switch v := it["id"].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// SetID overwrites the item's id field.
func (it Item) SetID(id int64) {
	it["id"] = id
}

// MediaAsset describes one uploaded file belonging to an item. Existence is
// defined purely by presence in the item's asset directory; there is no
// separate record of it anywhere.
type MediaAsset struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// ABOUTME: Tri-state optional string used by sparse contact updates
// ABOUTME: Distinguishes an absent field from an explicit null and from a value

package store

import (
	"bytes"
	"encoding/json"
)

// Optional is a field of a sparse update.
// Set reports whether the field was supplied; Value is nil for an explicit null.
type Optional struct {
	Set   bool
	Value *string
}

// Some returns a set Optional holding v.
func Some(v string) Optional {
	return Optional{Set: true, Value: &v}
}

// UnmarshalJSON marks the field as set. It is only called when the key is present,
// so absent keys keep the zero value (not set).
func (o *Optional) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// value returns the database value for a set field.
func (o Optional) value() any {
	if o.Value == nil {
		return nil
	}
	return *o.Value
}

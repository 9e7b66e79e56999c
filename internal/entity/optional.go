package entity

import (
	"bytes"
	"encoding/json"
)

// Optional is one PATCH field. Set reports that the key was present in the payload;
// Valid is false when it was present as an explicit null.
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// Some is a present, non-null value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Valid: true, Value: v}
}

// Null is a present, explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Valid = false
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// Ptr returns nil for null or absent.
func (o Optional[T]) Ptr() *T {
	if !o.Set || !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// SQLValue is what an UPDATE should bind: the value, or nil for an explicit null.
func (o Optional[T]) SQLValue() any {
	if !o.Valid {
		return nil
	}
	return o.Value
}

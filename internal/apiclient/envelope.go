package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"

	"devmatch/client/internal/models"
)

// The backend is inconsistent about wrapping: lists arrive as {"data": [...]}
// or as a bare array, single objects as {"data": {...}} or bare. Responses
// are normalized here, once, so call sites only ever see the plain shape.

// bodyShape tags which form a response body had.
type bodyShape int

const (
	shapeEmpty bodyShape = iota
	shapeBare
	shapeWrapped
)

type listBody[T any] struct {
	Shape      bodyShape
	Items      []T
	Pagination *models.Pagination
	Filters    *models.AppliedFilters
}

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Pagination *models.Pagination     `json:"pagination"`
	Filters    *models.AppliedFilters `json:"filters"`
	Message    string                 `json:"message"`
}

func isNull(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func decodeList[T any](raw []byte) (listBody[T], error) {
	var out listBody[T]
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return out, nil
	}

	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &out.Items); err != nil {
			return out, fmt.Errorf("decode list: %w", err)
		}
		out.Shape = shapeBare
		return out, nil

	case '{':
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return out, fmt.Errorf("decode envelope: %w", err)
		}
		out.Shape = shapeWrapped
		out.Pagination = env.Pagination
		out.Filters = env.Filters
		data := bytes.TrimSpace(env.Data)
		if isNull(data) {
			return out, nil
		}
		if data[0] != '[' {
			// A wrapped non-array is treated as "no items", like a missing list.
			return out, nil
		}
		if err := json.Unmarshal(data, &out.Items); err != nil {
			return out, fmt.Errorf("decode list data: %w", err)
		}
		return out, nil
	}
	return out, fmt.Errorf("decode list: unexpected body %q", truncate(raw))
}

func decodeObject[T any](raw []byte) (T, bodyShape, error) {
	var out T
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return out, shapeEmpty, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && !isNull(env.Data) {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return out, shapeWrapped, fmt.Errorf("decode object data: %w", err)
		}
		return out, shapeWrapped, nil
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, shapeBare, fmt.Errorf("decode object: %w", err)
	}
	return out, shapeBare, nil
}

func truncate(b []byte) string {
	const max = 64
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

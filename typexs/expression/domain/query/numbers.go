package query

import (
	"math"
	"reflect"
	"time"
)

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// ToInt64 returns v as an integer if it is a number without fraction.
func ToInt64(v any) (int64, bool) {
	f, ok := toFloat(v)
	if !ok || math.Trunc(f) != f || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

func isNumber(v any) bool {
	_, ok := toFloat(v)
	return ok
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, time.Time:
		return true
	default:
		return isNumber(v)
	}
}

// normalize brings user input into the forms the interpreter works on:
// Documents, []any and scalars.
func normalize(v any) (any, error) {
	switch t := v.(type) {
	case Document, []any:
		return t, nil
	case map[string]any:
		return FromMap(t), nil
	case []byte:
		return nil, ErrUnsupportedValue
	}
	if isScalar(v) {
		return v, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, nil
	}
	return nil, ErrUnsupportedValue
}

func documentOf(v any) (Document, bool) {
	switch t := v.(type) {
	case Document:
		return t, true
	case map[string]any:
		return FromMap(t), true
	default:
		return nil, false
	}
}

func arrayOf(v any) ([]any, bool) {
	if _, ok := documentOf(v); ok || isScalar(v) {
		return nil, false
	}
	n, err := normalize(v)
	if err != nil {
		return nil, false
	}
	items, ok := n.([]any)
	return items, ok
}

func isOperatorDocument(v any) bool {
	doc, ok := documentOf(v)
	return ok && len(doc) == 1 && isOperatorKey(doc[0].Key)
}

func isComposite(v any) bool {
	return !isScalar(v)
}

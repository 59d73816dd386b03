package query

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	domainquery "github.com/typexs/typexs-base-sub000/typexs/expression/domain/query"
)

const dateLayout = "2006-01-02"

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", dateLayout}

// coerceColumn converts value the way a column of type typ stores it.
func coerceColumn(value any, typ ColumnType) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch typ {
	case TypeDate:
		switch v := value.(type) {
		case time.Time:
			return v.Format(dateLayout), nil
		case string:
			t, err := parseTime(v)
			if err != nil {
				return nil, err
			}
			return t.Format(dateLayout), nil
		}
	case TypeTimestamp:
		switch v := value.(type) {
		case time.Time:
			return v.UTC(), nil
		case string:
			t, err := parseTime(v)
			if err != nil {
				return nil, err
			}
			return t.UTC(), nil
		}
	case TypeUUID:
		if s, ok := value.(string); ok {
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidValue, "%q is not a uuid", s)
			}
			return id, nil
		}
	case TypeULID:
		if s, ok := value.(string); ok {
			id, err := ulid.Parse(s)
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidValue, "%q is not a ulid", s)
			}
			return id, nil
		}
	case TypeInteger:
		if f, ok := value.(float64); ok {
			if math.Trunc(f) != f {
				return nil, errors.Wrapf(ErrInvalidValue, "%v is not an integer", f)
			}
			return int64(f), nil
		}
		if n, ok := domainquery.ToInt64(value); ok {
			return n, nil
		}
	case TypeFloat:
		if n, ok := domainquery.ToInt64(value); ok {
			return float64(n), nil
		}
	}
	return value, nil
}

// coerceFree formats values compared against computed columns, which carry
// no type information.
func coerceFree(value any) any {
	if t, ok := value.(time.Time); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return value
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(ErrInvalidValue, "%q is not a date", s)
}

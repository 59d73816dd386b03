package query

import (
	"bytes"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

// Entry is a single key/value pair of a Document.
type Entry struct {
	Key   string
	Value any
}

// Document is a query object that keeps the order of its keys.
type Document []Entry

// D builds a Document from alternating keys and values.
func D(pairs ...any) Document {
	if len(pairs)%2 != 0 {
		panic("query.D: odd number of arguments")
	}
	doc := make(Document, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("query.D: key %v is not a string", pairs[i]))
		}
		doc = append(doc, Entry{Key: key, Value: pairs[i+1]})
	}
	return doc
}

func (d Document) Keys() []string {
	keys := make([]string, len(d))
	for i, e := range d {
		keys[i] = e.Key
	}
	return keys
}

func (d Document) Get(key string) (any, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FromMap converts a map into a Document with sorted keys. Nested maps are
// converted when the interpreter reaches them.
func FromMap(m map[string]any) Document {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	doc := make(Document, 0, len(keys))
	for _, k := range keys {
		doc = append(doc, Entry{Key: k, Value: m[k]})
	}
	return doc
}

var parserPool fastjson.ParserPool

// DecodeJSON decodes a JSON query keeping the key order of every object.
// Objects become Documents, arrays []any, integral numbers int64.
func DecodeJSON(data []byte) (any, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, "invalid query JSON")
	}
	return fromJSONValue(v), nil
}

func fromJSONValue(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeObject:
		obj, _ := v.Object()
		doc := make(Document, 0, obj.Len())
		obj.Visit(func(key []byte, val *fastjson.Value) {
			k := string(key)
			for i := range doc {
				if doc[i].Key == k {
					doc[i].Value = fromJSONValue(val)
					return
				}
			}
			doc = append(doc, Entry{Key: k, Value: fromJSONValue(val)})
		})
		return doc
	case fastjson.TypeArray:
		arr, _ := v.Array()
		items := make([]any, len(arr))
		for i, item := range arr {
			items[i] = fromJSONValue(item)
		}
		return items
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		if i, err := v.Int64(); err == nil {
			return i
		}
		return v.GetFloat64()
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	default:
		return nil
	}
}

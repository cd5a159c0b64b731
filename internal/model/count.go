package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// Count is an optional whole number such as a semester number or a class
// count. Stored values that are not whole numbers ("No Data", "3", 7.5) are
// kept in Raw and written back as they were read. An explicit null is kept
// as Null.
type Count struct {
	N     int
	Valid bool
	Raw   any
	Null  bool
}

// Int returns a present Count.
func Int(n int) Count {
	return Count{N: n, Valid: true}
}

// IsZero reports whether the field was absent. Used by omitempty/omitzero.
func (c Count) IsZero() bool {
	return !c.Valid && c.Raw == nil && !c.Null
}

// IsMissing reports whether no value is stored: the field is absent or null.
func (c Count) IsMissing() bool {
	return !c.Valid && c.Raw == nil
}

// Key identifies the stored value for duplicate detection. Whole numbers
// and non-integer values never share a key, so 3 and "3" stay distinct.
// Absent and null share the empty key.
func (c Count) Key() string {
	switch v := c.Raw; {
	case c.Valid:
		return strconv.Itoa(c.N)
	case v == nil:
		return ""
	default:
		switch v := v.(type) {
		case string:
			return strconv.Quote(v)
		case float64:
			return strconv.FormatFloat(v, 'g', -1, 64)
		default:
			return fmt.Sprintf("%T:%v", v, v)
		}
	}
}

func (c Count) String() string {
	switch {
	case c.Valid:
		return strconv.Itoa(c.N)
	case c.Raw != nil:
		return fmt.Sprint(c.Raw)
	}
	return "<none>"
}

func (c Count) MarshalJSON() ([]byte, error) {
	switch {
	case c.Valid:
		return strconv.AppendInt(nil, int64(c.N), 10), nil
	case c.Raw != nil:
		return json.Marshal(c.Raw)
	}
	return []byte("null"), nil
}

func (c *Count) UnmarshalJSON(data []byte) error {
	*c = Count{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		c.Null = true
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if f, ok := v.(float64); ok {
		*c = fromFloat(f)
		return nil
	}
	c.Raw = v
	return nil
}

func (c Count) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch {
	case c.Valid:
		if c.N >= math.MinInt32 && c.N <= math.MaxInt32 {
			return bson.TypeInt32, bsoncore.AppendInt32(nil, int32(c.N)), nil
		}
		return bson.TypeInt64, bsoncore.AppendInt64(nil, int64(c.N)), nil
	case c.Raw != nil:
		return bson.MarshalValue(c.Raw)
	}
	return bson.TypeNull, nil, nil
}

func (c *Count) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	*c = Count{}
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeNull, bson.TypeUndefined:
		c.Null = true
		return nil
	case bson.TypeInt32:
		*c = Int(int(rv.Int32()))
		return nil
	case bson.TypeInt64:
		*c = Int(int(rv.Int64()))
		return nil
	case bson.TypeDouble:
		*c = fromFloat(rv.Double())
		return nil
	}
	var v any
	if err := rv.Unmarshal(&v); err != nil {
		return err
	}
	c.Raw = v
	return nil
}

// fromFloat turns an integral number into a present Count and keeps any
// other number as Raw.
func fromFloat(f float64) Count {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) ||
		f > math.MaxInt64 || f < math.MinInt64 {
		return Count{Raw: f}
	}
	return Int(int(f))
}

package store

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// fieldKind is the logical storage category of a struct field. The codec
// maps each kind to one SQLite storage class and converts values in both
// directions. All functions here are pure.
type fieldKind int

const (
	kindInt fieldKind = iota
	kindUint
	kindFloat
	kindBool
	kindString
	kindTime
	kindUUID
	kindBytes
)

var (
	timeType  = reflect.TypeOf(time.Time{})
	uuidType  = reflect.TypeOf(uuid.UUID{})
	bytesType = reflect.TypeOf([]byte(nil))
)

// kindOf classifies a field type, unwrapping one level of pointer for
// nullable fields. The second return reports whether the field is a
// pointer, the third whether the type is persistable at all.
func kindOf(t reflect.Type) (fieldKind, bool, bool) {
	ptr := false
	if t.Kind() == reflect.Pointer {
		ptr = true
		t = t.Elem()
	}
	switch t {
	case timeType:
		return kindTime, ptr, true
	case uuidType:
		return kindUUID, ptr, true
	case bytesType:
		return kindBytes, ptr, true
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return kindInt, ptr, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return kindUint, ptr, true
	case reflect.Float32, reflect.Float64:
		return kindFloat, ptr, true
	case reflect.Bool:
		return kindBool, ptr, true
	case reflect.String:
		return kindString, ptr, true
	}
	return 0, ptr, false
}

// columnType returns the SQLite column type for a logical kind:
// integral/boolean map to INTEGER, floating to REAL, raw bytes to BLOB,
// and everything else (text, timestamps, identifiers) to TEXT.
func columnType(k fieldKind) string {
	switch k {
	case kindInt, kindUint, kindBool:
		return "INTEGER"
	case kindFloat:
		return "REAL"
	case kindBytes:
		return "BLOB"
	default:
		return "TEXT"
	}
}

// encodeValue converts a field value to a driver-friendly value. A nil
// pointer field encodes as NULL.
func encodeValue(v reflect.Value, k fieldKind) any {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch k {
	case kindInt:
		return v.Int()
	case kindUint:
		return int64(v.Uint())
	case kindFloat:
		return v.Float()
	case kindBool:
		return v.Bool()
	case kindString:
		return v.String()
	case kindTime:
		return v.Interface().(time.Time).Format(time.RFC3339Nano)
	case kindUUID:
		return v.Interface().(uuid.UUID).String()
	case kindBytes:
		return v.Bytes()
	}
	return nil
}

// decodeValue converts a raw column value into the destination field.
// A nil raw value leaves the field at its zero value. A value that
// cannot be converted to the field's kind is a hard failure.
func decodeValue(raw any, k fieldKind, dst reflect.Value) error {
	if raw == nil {
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		dst.Set(reflect.New(dst.Type().Elem()))
		dst = dst.Elem()
	}
	switch k {
	case kindInt:
		n, err := toInt64(raw)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)
	case kindUint:
		n, err := toInt64(raw)
		if err != nil {
			return err
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetUint(uint64(n))
	case kindFloat:
		switch v := raw.(type) {
		case float64:
			dst.SetFloat(v)
		case int64:
			dst.SetFloat(float64(v))
		default:
			return fmt.Errorf("cannot decode %T into %s", raw, dst.Type())
		}
	case kindBool:
		switch v := raw.(type) {
		case bool:
			dst.SetBool(v)
		case int64:
			dst.SetBool(v != 0)
		default:
			return fmt.Errorf("cannot decode %T into bool", raw)
		}
	case kindString:
		s, ok := toString(raw)
		if !ok {
			return fmt.Errorf("cannot decode %T into string", raw)
		}
		dst.SetString(s)
	case kindTime:
		if t, ok := raw.(time.Time); ok {
			dst.Set(reflect.ValueOf(t))
			return nil
		}
		s, ok := toString(raw)
		if !ok {
			return fmt.Errorf("cannot decode %T into time.Time", raw)
		}
		t, err := parseTime(s)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(t))
	case kindUUID:
		u, err := decodeUUID(raw)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(u))
	case kindBytes:
		switch v := raw.(type) {
		case []byte:
			dst.SetBytes(append([]byte(nil), v...))
		case string:
			dst.SetBytes([]byte(v))
		default:
			return fmt.Errorf("cannot decode %T into []byte", raw)
		}
	}
	return nil
}

// decodeUUID accepts either representation a caller may have stored: a
// textual form, or a fixed 16-byte sequence. The textual parse is tried
// first, then the byte reinterpretation.
func decodeUUID(raw any) (uuid.UUID, error) {
	switch v := raw.(type) {
	case string:
		return uuid.Parse(v)
	case []byte:
		if u, err := uuid.Parse(string(v)); err == nil {
			return u, nil
		}
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		return uuid.Nil, fmt.Errorf("cannot decode %d bytes as uuid", len(v))
	}
	return uuid.Nil, fmt.Errorf("cannot decode %T as uuid", raw)
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	}
	return 0, fmt.Errorf("cannot decode %T as integer", raw)
}

func toString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

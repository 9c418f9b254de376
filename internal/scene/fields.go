package scene

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

type fieldInfo struct {
	name  string
	index int
	typ   reflect.Type
}

var (
	fields      []fieldInfo
	fieldByName map[string]fieldInfo
	sequenceTyp = reflect.TypeOf(ColorSequence(nil))
)

type validator interface{ Valid() bool }

func init() {
	t := reflect.TypeOf(Config{})
	fieldByName = make(map[string]fieldInfo, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		fi := fieldInfo{name: name, index: i, typ: sf.Type}
		fields = append(fields, fi)
		fieldByName[name] = fi
	}
}

// FieldNames returns every field name in declaration order.
func FieldNames() []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	return names
}

// FieldKind returns the reflect.Kind backing the named field.
func FieldKind(name string) (reflect.Kind, bool) {
	f, ok := fieldByName[name]
	if !ok {
		return reflect.Invalid, false
	}
	return f.typ.Kind(), true
}

// Field returns a copy of the named field's value.
func (c Config) Field(name string) (any, bool) {
	f, ok := fieldByName[name]
	if !ok {
		return nil, false
	}
	v := reflect.ValueOf(c).Field(f.index).Interface()
	if seq, ok := v.(ColorSequence); ok {
		return slices.Clone(seq), true
	}
	return v, true
}

// SetField updates exactly one named field. The value must have the
// field's type or convert to it without loss: JSON numbers (float64) are
// accepted for integer fields when integral, plain strings for enum fields
// when they name a member, and []string or []any for color sequences.
// No range validation is performed.
func (c *Config) SetField(name string, value any) error {
	f, ok := fieldByName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	v, err := coerce(f.typ, value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	reflect.ValueOf(c).Elem().Field(f.index).Set(v)
	return nil
}

func coerce(t reflect.Type, value any) (reflect.Value, error) {
	if value == nil {
		return reflect.Value{}, ErrFieldType
	}
	if t == sequenceTyp {
		return coerceSequence(value)
	}

	rv := reflect.ValueOf(value)
	var out reflect.Value
	switch t.Kind() {
	case reflect.String:
		if rv.Kind() != reflect.String {
			return reflect.Value{}, ErrFieldType
		}
		out = rv.Convert(t)
	case reflect.Int:
		switch {
		case rv.CanInt():
			out = reflect.ValueOf(int(rv.Int())).Convert(t)
		case rv.CanFloat():
			fv := rv.Float()
			if fv != math.Trunc(fv) || math.IsInf(fv, 0) {
				return reflect.Value{}, ErrFieldType
			}
			out = reflect.ValueOf(int(fv)).Convert(t)
		default:
			return reflect.Value{}, ErrFieldType
		}
	case reflect.Float64:
		switch {
		case rv.CanFloat():
			out = reflect.ValueOf(rv.Float()).Convert(t)
		case rv.CanInt():
			out = reflect.ValueOf(float64(rv.Int())).Convert(t)
		default:
			return reflect.Value{}, ErrFieldType
		}
		if math.IsNaN(out.Float()) || math.IsInf(out.Float(), 0) {
			return reflect.Value{}, ErrFieldType
		}
	case reflect.Bool:
		if rv.Kind() != reflect.Bool {
			return reflect.Value{}, ErrFieldType
		}
		out = rv.Convert(t)
	default:
		return reflect.Value{}, ErrFieldType
	}

	if v, ok := out.Interface().(validator); ok && !v.Valid() {
		return reflect.Value{}, fmt.Errorf("%w: %v is not a valid %s", ErrFieldType, value, t.Name())
	}
	return out, nil
}

func coerceSequence(value any) (reflect.Value, error) {
	var seq ColorSequence
	switch v := value.(type) {
	case ColorSequence:
		seq = slices.Clone(v)
	case []string:
		seq = slices.Clone(ColorSequence(v))
	case []any:
		seq = make(ColorSequence, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return reflect.Value{}, ErrFieldType
			}
			seq = append(seq, s)
		}
	default:
		return reflect.Value{}, ErrFieldType
	}
	if len(seq) == 0 {
		return reflect.Value{}, ErrEmptySequence
	}
	return reflect.ValueOf(seq), nil
}

// Record flattens the configuration into a plain key-value record.
// Strings are stored verbatim, numbers and booleans in strconv form and
// color sequences as JSON arrays.
func (c Config) Record() map[string]string {
	rv := reflect.ValueOf(c)
	rec := make(map[string]string, len(fields))
	for _, f := range fields {
		v := rv.Field(f.index)
		switch {
		case f.typ == sequenceTyp:
			data, _ := json.Marshal(v.Interface())
			rec[f.name] = string(data)
		case f.typ.Kind() == reflect.String:
			rec[f.name] = v.String()
		case f.typ.Kind() == reflect.Int:
			rec[f.name] = strconv.FormatInt(v.Int(), 10)
		case f.typ.Kind() == reflect.Float64:
			rec[f.name] = strconv.FormatFloat(v.Float(), 'g', -1, 64)
		case f.typ.Kind() == reflect.Bool:
			rec[f.name] = strconv.FormatBool(v.Bool())
		}
	}
	return rec
}

// ApplyRecord overwrites the fields present in rec. Unknown keys are
// ignored so records written by newer versions still load.
func (c *Config) ApplyRecord(rec map[string]string) error {
	next := c.Clone()
	for key, raw := range rec {
		f, ok := fieldByName[key]
		if !ok {
			continue
		}
		var value any
		switch {
		case f.typ == sequenceTyp:
			var seq []string
			if err := json.Unmarshal([]byte(raw), &seq); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			value = seq
		case f.typ.Kind() == reflect.String:
			value = raw
		case f.typ.Kind() == reflect.Int:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			value = n
		case f.typ.Kind() == reflect.Float64:
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			value = n
		case f.typ.Kind() == reflect.Bool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			value = b
		}
		if err := next.SetField(key, value); err != nil {
			return err
		}
	}
	*c = next
	return nil
}

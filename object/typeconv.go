package object

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/cloudcmds/framevm/bytecode"
	"github.com/cloudcmds/framevm/errz"
)

// *****************************************************************************
// Type assertion helpers
// *****************************************************************************

func AsBool(obj Object) (bool, error) {
	b, ok := obj.(*Bool)
	if !ok {
		return false, errz.TypeErrorf("expected a bool (%s given)", obj.Type())
	}
	return b.value, nil
}

func AsString(obj Object) (string, error) {
	s, ok := obj.(*String)
	if !ok {
		return "", errz.TypeErrorf("expected a str (%s given)", obj.Type())
	}
	return s.value, nil
}

// AsInt accepts an int or a bool.
func AsInt(obj Object) (int64, error) {
	switch obj := obj.(type) {
	case *Int:
		return obj.value, nil
	case *Bool:
		return obj.asInt(), nil
	default:
		return 0, errz.TypeErrorf("expected an int (%s given)", obj.Type())
	}
}

// AsFloat accepts any number.
func AsFloat(obj Object) (float64, error) {
	switch obj := obj.(type) {
	case *Int:
		return float64(obj.value), nil
	case *Bool:
		return float64(obj.asInt()), nil
	case *Float:
		return obj.value, nil
	default:
		return 0, errz.TypeErrorf("expected a number (%s given)", obj.Type())
	}
}

// AsIndex converts a subscript to an integer index. what names the indexed
// type in the fault message.
func AsIndex(obj Object, what string) (int64, error) {
	switch obj := obj.(type) {
	case *Int:
		return obj.value, nil
	case *Bool:
		return obj.asInt(), nil
	default:
		return 0, errz.TypeErrorf("%s indices must be integers, not %s", what, obj.Type())
	}
}

// ResolveIndex maps a possibly negative index onto [0, length).
func ResolveIndex(index int64, length int, what string) (int, error) {
	if index < 0 {
		index += int64(length)
	}
	if index < 0 || index >= int64(length) {
		return 0, errz.IndexErrorf("%s index out of range", what)
	}
	return int(index), nil
}

// AsList returns the items of a list, or fails with a type fault.
func AsList(obj Object) (*List, error) {
	list, ok := obj.(*List)
	if !ok {
		return nil, errz.TypeErrorf("expected a list (%s given)", obj.Type())
	}
	return list, nil
}

// AsDict returns the dict, or fails with a type fault.
func AsDict(obj Object) (*Dict, error) {
	d, ok := obj.(*Dict)
	if !ok {
		return nil, errz.TypeErrorf("expected a dict (%s given)", obj.Type())
	}
	return d, nil
}

// *****************************************************************************
// Go value conversion
// *****************************************************************************

// AsObject converts a Go value to an Object. Objects are returned as is;
// slices and arrays become lists, maps with string keys become dicts and
// pointers are dereferenced.
func AsObject(v any) (Object, error) {
	switch v := v.(type) {
	case nil:
		return None, nil
	case Object:
		return v, nil
	case bool:
		return NewBool(v), nil
	case int:
		return NewInt(int64(v)), nil
	case int64:
		return NewInt(v), nil
	case float64:
		return NewFloat(v), nil
	case string:
		return NewString(v), nil
	case []any:
		return fromGoSlice(reflect.ValueOf(v))
	case map[string]any:
		return fromGoMap(reflect.ValueOf(v))
	}
	return fromGoByKind(reflect.ValueOf(v))
}

func fromGoByKind(rv reflect.Value) (Object, error) {
	typ := rv.Type()
	switch typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, errz.ValueErrorf("integer %d overflows int", u)
		}
		return NewInt(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return NewFloat(rv.Float()), nil
	case reflect.Bool:
		return NewBool(rv.Bool()), nil
	case reflect.String:
		return NewString(rv.String()), nil
	case reflect.Slice, reflect.Array:
		return fromGoSlice(rv)
	case reflect.Map:
		return fromGoMap(rv)
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return None, nil
		}
		return AsObject(rv.Elem().Interface())
	default:
		return nil, errz.TypeErrorf("cannot convert go value of type %s", typ)
	}
}

func fromGoSlice(rv reflect.Value) (Object, error) {
	count := rv.Len()
	items := make([]Object, 0, count)
	for i := 0; i < count; i++ {
		item, err := AsObject(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("failed to convert slice element %d: %w", i, err)
		}
		items = append(items, item)
	}
	return NewList(items), nil
}

func fromGoMap(rv reflect.Value) (Object, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, errz.TypeErrorf("unsupported map key type: %s (only string keys supported)", rv.Type().Key())
	}
	keys := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	sort.Strings(keys)
	d := NewDict()
	for _, key := range keys {
		val, err := AsObject(rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key())).Interface())
		if err != nil {
			return nil, fmt.Errorf("failed to convert map value for key %q: %w", key, err)
		}
		d.SetString(key, val)
	}
	return d, nil
}

// AsObjects transforms a map containing arbitrary Go types to a map of
// objects. If an item in the map is of a type that can't be converted, an
// error is returned.
func AsObjects(m map[string]any) (map[string]Object, error) {
	result := make(map[string]Object, len(m))
	for k, v := range m {
		obj, err := AsObject(v)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %q: %w", k, err)
		}
		result[k] = obj
	}
	return result, nil
}

// FromConstant converts a constant pool entry to an object. Tuple constants
// become tuples and nested code objects become code values.
func FromConstant(c any) (Object, error) {
	switch c := c.(type) {
	case nil:
		return None, nil
	case bool:
		return NewBool(c), nil
	case int64:
		return NewInt(c), nil
	case float64:
		return NewFloat(c), nil
	case string:
		return NewString(c), nil
	case *bytecode.Code:
		return NewCodeValue(c), nil
	case bytecode.Tuple:
		items := make([]Object, 0, len(c))
		for _, item := range c {
			obj, err := FromConstant(item)
			if err != nil {
				return nil, err
			}
			items = append(items, obj)
		}
		return NewTuple(items), nil
	default:
		return nil, errz.MalformedCodef("unsupported constant type %T", c)
	}
}

// Package builtins defines the default set of built-in functions.
package builtins

import (
	"context"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/object"
	"github.com/cloudcmds/framevm/op"
)

func checkArgs(name string, args []object.Object, lo, hi int) error {
	n := len(args)
	if n >= lo && n <= hi {
		return nil
	}
	switch {
	case lo == hi && lo == 1:
		return errz.New(errz.ErrArity, "%s: expected 1 argument, got %d", name, n)
	case lo == hi:
		return errz.New(errz.ErrArity, "%s: expected %d arguments, got %d", name, lo, n)
	case hi == math.MaxInt:
		return errz.New(errz.ErrArity, "%s: expected at least %d argument%s, got %d", name, lo, plural(lo), n)
	default:
		return errz.New(errz.ErrArity, "%s: expected %d-%d arguments, got %d", name, lo, hi, n)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// keywords reads the keyword arguments accepted by a builtin into a map.
// Unknown or non-string keywords are faults.
func keywords(name string, kwargs *object.Dict, allowed ...string) (map[string]object.Object, error) {
	values := make(map[string]object.Object, kwargs.Len())
	for _, e := range kwargs.Entries() {
		key, ok := e[0].(*object.String)
		if !ok {
			return nil, errz.TypeErrorf("%s() keywords must be strings", name)
		}
		known := false
		for _, a := range allowed {
			if a == key.Value() {
				known = true
				break
			}
		}
		if !known {
			return nil, errz.New(errz.ErrUnexpectedKeyword,
				"%s() got an unexpected keyword argument '%s'", name, key.Value())
		}
		values[key.Value()] = e[1]
	}
	return values, nil
}

// Print returns a print builtin writing to w.
func Print(w io.Writer) object.KeywordBuiltinFunction {
	return func(ctx context.Context, args []object.Object, kwargs *object.Dict) (object.Object, error) {
		kw, err := keywords("print", kwargs, "sep", "end")
		if err != nil {
			return nil, err
		}
		sep, end := " ", "\n"
		if v, ok := kw["sep"]; ok && v != object.None {
			if sep, err = object.AsString(v); err != nil {
				return nil, errz.TypeErrorf("sep must be None or a string, not %s", v.Type())
			}
		}
		if v, ok := kw["end"]; ok && v != object.None {
			if end, err = object.AsString(v); err != nil {
				return nil, errz.TypeErrorf("end must be None or a string, not %s", v.Type())
			}
		}
		parts := make([]string, len(args))
		for i, arg := range args {
			parts[i] = object.Str(arg)
		}
		if _, err := io.WriteString(w, strings.Join(parts, sep)+end); err != nil {
			return nil, err
		}
		return object.None, nil
	}
}

func Len(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("len", args, 1, 1); err != nil {
		return nil, err
	}
	n, err := object.Len(args[0])
	if err != nil {
		return nil, err
	}
	return object.NewInt(int64(n)), nil
}

func Range(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("range", args, 1, 3); err != nil {
		return nil, err
	}
	bounds := make([]int64, len(args))
	for i, arg := range args {
		v, err := object.AsIndex(arg, "range")
		if err != nil {
			return nil, errz.TypeErrorf("'%s' object cannot be interpreted as an integer", arg.Type())
		}
		bounds[i] = v
	}
	start, stop, step := int64(0), int64(0), int64(1)
	switch len(bounds) {
	case 1:
		stop = bounds[0]
	case 2:
		start, stop = bounds[0], bounds[1]
	default:
		start, stop, step = bounds[0], bounds[1], bounds[2]
	}
	return object.NewRange(start, stop, step)
}

func Abs(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("abs", args, 1, 1); err != nil {
		return nil, err
	}
	switch arg := args[0].(type) {
	case *object.Float:
		return object.NewFloat(math.Abs(arg.Value())), nil
	case *object.Int, *object.Bool:
		v, _ := object.AsInt(arg)
		if v < 0 {
			v = -v
		}
		return object.NewInt(v), nil
	default:
		return nil, errz.TypeErrorf("bad operand type for abs(): '%s'", arg.Type())
	}
}

// extreme implements min and max. better reports whether candidate should
// replace the current result.
func extreme(name string, better func(candidate, current object.Object) (bool, error)) object.KeywordBuiltinFunction {
	return func(ctx context.Context, args []object.Object, kwargs *object.Dict) (object.Object, error) {
		if err := checkArgs(name, args, 1, math.MaxInt); err != nil {
			return nil, err
		}
		kw, err := keywords(name, kwargs, "key", "default")
		if err != nil {
			return nil, err
		}
		items := args
		if len(args) == 1 {
			if items, err = object.Collect(args[0]); err != nil {
				return nil, err
			}
		} else if _, ok := kw["default"]; ok {
			return nil, errz.TypeErrorf("Cannot specify a default for %s() with multiple positional arguments", name)
		}
		if len(items) == 0 {
			if def, ok := kw["default"]; ok {
				return def, nil
			}
			return nil, errz.ValueErrorf("%s() arg is an empty sequence", name)
		}
		var key object.Callable
		if k, ok := kw["key"]; ok && k != object.None {
			if key, ok = k.(object.Callable); !ok {
				return nil, errz.TypeErrorf("'%s' object is not callable", k.Type())
			}
		}
		keyOf := func(item object.Object) (object.Object, error) {
			if key == nil {
				return item, nil
			}
			return key.Call(ctx, item)
		}
		result := items[0]
		resultKey, err := keyOf(result)
		if err != nil {
			return nil, err
		}
		for _, item := range items[1:] {
			itemKey, err := keyOf(item)
			if err != nil {
				return nil, err
			}
			replace, err := better(itemKey, resultKey)
			if err != nil {
				return nil, err
			}
			if replace {
				result, resultKey = item, itemKey
			}
		}
		return result, nil
	}
}

var (
	Min = extreme("min", func(candidate, current object.Object) (bool, error) {
		return object.Less(candidate, current)
	})
	Max = extreme("max", func(candidate, current object.Object) (bool, error) {
		return object.Less(current, candidate)
	})
)

func Sum(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("sum", args, 1, 2); err != nil {
		return nil, err
	}
	var total object.Object = object.NewInt(0)
	if len(args) == 2 {
		if _, ok := args[1].(*object.String); ok {
			return nil, errz.TypeErrorf("sum() can't sum strings")
		}
		total = args[1]
	}
	it, err := object.GetIter(args[0])
	if err != nil {
		return nil, err
	}
	for {
		value, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return total, nil
		}
		if total, err = object.BinaryOp(op.Add, total, value); err != nil {
			return nil, err
		}
	}
}

func List(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("list", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return object.NewList(nil), nil
	}
	items, err := object.Collect(args[0])
	if err != nil {
		return nil, err
	}
	return object.NewList(items), nil
}

func Tuple(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("tuple", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return object.NewTuple(nil), nil
	}
	if t, ok := args[0].(*object.Tuple); ok {
		return t, nil
	}
	items, err := object.Collect(args[0])
	if err != nil {
		return nil, err
	}
	return object.NewTuple(items), nil
}

func Dict(ctx context.Context, args []object.Object, kwargs *object.Dict) (object.Object, error) {
	if err := checkArgs("dict", args, 0, 1); err != nil {
		return nil, err
	}
	result := object.NewDict()
	if len(args) == 1 {
		if err := result.Update(args[0]); err != nil {
			return nil, err
		}
	}
	if kwargs.Len() > 0 {
		if err := result.Update(kwargs); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func Str(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("str", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return object.NewString(""), nil
	}
	if s, ok := args[0].(*object.String); ok {
		return s, nil
	}
	return object.NewString(object.Str(args[0])), nil
}

func Repr(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("repr", args, 1, 1); err != nil {
		return nil, err
	}
	return object.NewString(args[0].Inspect()), nil
}

func Int(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("int", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return object.NewInt(0), nil
	}
	switch obj := args[0].(type) {
	case *object.Int:
		return obj, nil
	case *object.Bool:
		v, _ := object.AsInt(obj)
		return object.NewInt(v), nil
	case *object.Float:
		f := obj.Value()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errz.ValueErrorf("cannot convert float %s to integer", obj.Inspect())
		}
		return object.NewInt(int64(f)), nil
	case *object.String:
		text := strings.ReplaceAll(strings.TrimSpace(obj.Value()), "_", "")
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return object.NewInt(i), nil
		}
		return nil, errz.ValueErrorf("invalid literal for int() with base 10: %s", obj.Inspect())
	default:
		return nil, errz.TypeErrorf("int() argument must be a string or a number, not '%s'", obj.Type())
	}
}

func Float(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("float", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return object.NewFloat(0), nil
	}
	switch obj := args[0].(type) {
	case *object.Float:
		return obj, nil
	case *object.Int, *object.Bool:
		f, _ := object.AsFloat(obj)
		return object.NewFloat(f), nil
	case *object.String:
		if f, err := strconv.ParseFloat(strings.TrimSpace(obj.Value()), 64); err == nil {
			return object.NewFloat(f), nil
		}
		return nil, errz.ValueErrorf("could not convert string to float: %s", obj.Inspect())
	default:
		return nil, errz.TypeErrorf("float() argument must be a string or a number, not '%s'", obj.Type())
	}
}

func Bool(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("bool", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return object.False, nil
	}
	return object.NewBool(args[0].IsTruthy()), nil
}

func Sorted(ctx context.Context, args []object.Object, kwargs *object.Dict) (object.Object, error) {
	if err := checkArgs("sorted", args, 1, 1); err != nil {
		return nil, err
	}
	key, reverse, err := object.SortOptions("sorted", kwargs)
	if err != nil {
		return nil, err
	}
	items, err := object.Collect(args[0])
	if err != nil {
		return nil, err
	}
	if err := object.Sort(ctx, items, key, reverse); err != nil {
		return nil, err
	}
	return object.NewList(items), nil
}

func Reversed(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("reversed", args, 1, 1); err != nil {
		return nil, err
	}
	switch args[0].(type) {
	case *object.List, *object.Tuple, *object.String, *object.Range:
	default:
		return nil, errz.TypeErrorf("'%s' object is not reversible", args[0].Type())
	}
	items, err := object.Collect(args[0])
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return object.NewSliceIter("reversed", items), nil
}

func Enumerate(ctx context.Context, args []object.Object, kwargs *object.Dict) (object.Object, error) {
	if err := checkArgs("enumerate", args, 1, 2); err != nil {
		return nil, err
	}
	kw, err := keywords("enumerate", kwargs, "start")
	if err != nil {
		return nil, err
	}
	startObj, hasStart := kw["start"]
	if len(args) == 2 {
		if hasStart {
			return nil, errz.New(errz.ErrUnexpectedKeyword, "enumerate() got multiple values for argument 'start'")
		}
		startObj, hasStart = args[1], true
	}
	count := int64(0)
	if hasStart {
		if count, err = object.AsIndex(startObj, "enumerate"); err != nil {
			return nil, errz.TypeErrorf("'%s' object cannot be interpreted as an integer", startObj.Type())
		}
	}
	it, err := object.GetIter(args[0])
	if err != nil {
		return nil, err
	}
	return object.NewIter("enumerate", func() (object.Object, bool, error) {
		value, ok, err := it.Next()
		if err != nil || !ok {
			return nil, false, err
		}
		pair := object.NewTuple([]object.Object{object.NewInt(count), value})
		count++
		return pair, true, nil
	}), nil
}

func Zip(ctx context.Context, args ...object.Object) (object.Object, error) {
	iterators := make([]object.Iterator, len(args))
	for i, arg := range args {
		it, err := object.GetIter(arg)
		if err != nil {
			return nil, errz.TypeErrorf("zip argument #%d must support iteration", i+1)
		}
		iterators[i] = it
	}
	return object.NewIter("zip", func() (object.Object, bool, error) {
		if len(iterators) == 0 {
			return nil, false, nil
		}
		items := make([]object.Object, len(iterators))
		for i, it := range iterators {
			value, ok, err := it.Next()
			if err != nil || !ok {
				return nil, false, err
			}
			items[i] = value
		}
		return object.NewTuple(items), true, nil
	}), nil
}

func callableArg(name string, obj object.Object) (object.Callable, error) {
	fn, ok := obj.(object.Callable)
	if !ok {
		return nil, errz.TypeErrorf("%s() expected a callable (%s given)", name, obj.Type())
	}
	return fn, nil
}

func Map(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("map", args, 2, math.MaxInt); err != nil {
		return nil, err
	}
	fn, err := callableArg("map", args[0])
	if err != nil {
		return nil, err
	}
	zipped, err := Zip(ctx, args[1:]...)
	if err != nil {
		return nil, err
	}
	it := zipped.(object.Iterator)
	return object.NewIter("map", func() (object.Object, bool, error) {
		value, ok, err := it.Next()
		if err != nil || !ok {
			return nil, false, err
		}
		result, err := fn.Call(ctx, value.(*object.Tuple).Value()...)
		if err != nil {
			return nil, false, err
		}
		return result, true, nil
	}), nil
}

func Filter(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("filter", args, 2, 2); err != nil {
		return nil, err
	}
	var fn object.Callable
	if args[0] != object.None {
		var err error
		if fn, err = callableArg("filter", args[0]); err != nil {
			return nil, err
		}
	}
	it, err := object.GetIter(args[1])
	if err != nil {
		return nil, err
	}
	return object.NewIter("filter", func() (object.Object, bool, error) {
		for {
			value, ok, err := it.Next()
			if err != nil || !ok {
				return nil, false, err
			}
			decision := value
			if fn != nil {
				if decision, err = fn.Call(ctx, value); err != nil {
					return nil, false, err
				}
			}
			if decision.IsTruthy() {
				return value, true, nil
			}
		}
	}), nil
}

func Iter(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("iter", args, 1, 1); err != nil {
		return nil, err
	}
	return object.GetIter(args[0])
}

func Next(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("next", args, 1, 2); err != nil {
		return nil, err
	}
	it, ok := args[0].(object.Iterator)
	if !ok {
		return nil, errz.TypeErrorf("'%s' object is not an iterator", args[0].Type())
	}
	value, ok, err := it.Next()
	if err != nil {
		return nil, err
	}
	if !ok {
		if len(args) == 2 {
			return args[1], nil
		}
		return nil, errz.ValueErrorf("next() called on an exhausted iterator")
	}
	return value, nil
}

// typeNames maps the builtins that construct a type to the type they
// construct, so they can be passed to isinstance.
var typeNames = map[string]object.Type{
	"bool":  object.BOOL,
	"dict":  object.DICT,
	"float": object.FLOAT,
	"int":   object.INT,
	"list":  object.LIST,
	"range": object.RANGE,
	"str":   object.STRING,
	"tuple": object.TUPLE,
}

func IsInstance(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("isinstance", args, 2, 2); err != nil {
		return nil, err
	}
	var candidates []object.Object
	if t, ok := args[1].(*object.Tuple); ok {
		candidates = t.Value()
	} else {
		candidates = []object.Object{args[1]}
	}
	actual := args[0].Type()
	for _, c := range candidates {
		var want object.Type
		switch c := c.(type) {
		case *object.Builtin:
			t, ok := typeNames[c.Name()]
			if !ok {
				return nil, errz.TypeErrorf("isinstance() arg 2 must be a type or tuple of types")
			}
			want = t
		case *object.String:
			want = object.Type(c.Value())
		default:
			return nil, errz.TypeErrorf("isinstance() arg 2 must be a type or tuple of types")
		}
		// bool is a subtype of int.
		if want == actual || (want == object.INT && actual == object.BOOL) {
			return object.True, nil
		}
	}
	return object.False, nil
}

func Type(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("type", args, 1, 1); err != nil {
		return nil, err
	}
	return object.NewString(string(args[0].Type())), nil
}

// truthiness drains an iterable until a value whose truthiness equals want,
// reporting whether one was found.
func truthiness(obj object.Object, want bool) (bool, error) {
	it, err := object.GetIter(obj)
	if err != nil {
		return false, err
	}
	for {
		value, ok, err := it.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		if value.IsTruthy() == want {
			return true, nil
		}
	}
}

func Any(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("any", args, 1, 1); err != nil {
		return nil, err
	}
	found, err := truthiness(args[0], true)
	if err != nil {
		return nil, err
	}
	return object.NewBool(found), nil
}

func All(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("all", args, 1, 1); err != nil {
		return nil, err
	}
	found, err := truthiness(args[0], false)
	if err != nil {
		return nil, err
	}
	return object.NewBool(!found), nil
}

func IsCallable(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("callable", args, 1, 1); err != nil {
		return nil, err
	}
	_, ok := args[0].(object.Callable)
	return object.NewBool(ok), nil
}

func Dir(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("dir", args, 1, 1); err != nil {
		return nil, err
	}
	var names []string
	if i, ok := args[0].(object.Introspectable); ok {
		names = object.AttrNames(i.Attrs())
	}
	sort.Strings(names)
	return object.NewStringList(names), nil
}

func GetAttr(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("getattr", args, 2, 3); err != nil {
		return nil, err
	}
	name, err := object.AsString(args[1])
	if err != nil {
		return nil, errz.TypeErrorf("getattr(): attribute name must be string")
	}
	attr, err := object.GetAttr(args[0], name)
	if err != nil {
		if len(args) == 3 {
			return args[2], nil
		}
		return nil, err
	}
	return attr, nil
}

// New returns the default builtins with print writing to stdout.
func New(stdout io.Writer) map[string]object.Object {
	return map[string]object.Object{
		"abs":        object.NewBuiltin("abs", Abs),
		"all":        object.NewBuiltin("all", All),
		"any":        object.NewBuiltin("any", Any),
		"bool":       object.NewBuiltin("bool", Bool),
		"callable":   object.NewBuiltin("callable", IsCallable),
		"dict":       object.NewKeywordBuiltin("dict", Dict),
		"dir":        object.NewBuiltin("dir", Dir),
		"enumerate":  object.NewKeywordBuiltin("enumerate", Enumerate),
		"filter":     object.NewBuiltin("filter", Filter),
		"float":      object.NewBuiltin("float", Float),
		"getattr":    object.NewBuiltin("getattr", GetAttr),
		"int":        object.NewBuiltin("int", Int),
		"isinstance": object.NewBuiltin("isinstance", IsInstance),
		"iter":       object.NewBuiltin("iter", Iter),
		"len":        object.NewBuiltin("len", Len),
		"list":       object.NewBuiltin("list", List),
		"map":        object.NewBuiltin("map", Map),
		"max":        object.NewKeywordBuiltin("max", Max),
		"min":        object.NewKeywordBuiltin("min", Min),
		"next":       object.NewBuiltin("next", Next),
		"print":      object.NewKeywordBuiltin("print", Print(stdout)),
		"range":      object.NewBuiltin("range", Range),
		"repr":       object.NewBuiltin("repr", Repr),
		"reversed":   object.NewBuiltin("reversed", Reversed),
		"sorted":     object.NewKeywordBuiltin("sorted", Sorted),
		"str":        object.NewBuiltin("str", Str),
		"sum":        object.NewBuiltin("sum", Sum),
		"tuple":      object.NewBuiltin("tuple", Tuple),
		"type":       object.NewBuiltin("type", Type),
		"zip":        object.NewBuiltin("zip", Zip),
	}
}

// Builtins returns the default builtins with print writing to os.Stdout.
func Builtins() map[string]object.Object {
	return New(os.Stdout)
}

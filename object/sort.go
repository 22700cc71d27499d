package object

import (
	"context"
	"sort"

	"github.com/cloudcmds/framevm/errz"
)

// Sort a slice of objects in place. The sort is stable, also when reversed.
// If key is set, items are ordered by the result of calling key on each item
// once. If two items cannot be ordered, an error is returned and the order
// of items is unspecified.
func Sort(ctx context.Context, items []Object, key Callable, reverse bool) error {
	keys := items
	if key != nil {
		keys = make([]Object, len(items))
		for i, item := range items {
			k, err := key.Call(ctx, item)
			if err != nil {
				return err
			}
			keys[i] = k
		}
	}
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	var sortErr error
	sort.SliceStable(order, func(a, b int) bool {
		if sortErr != nil {
			return false
		}
		left, right := keys[order[a]], keys[order[b]]
		if reverse {
			left, right = right, left
		}
		less, err := Less(left, right)
		if err != nil {
			sortErr = err
			return false
		}
		return less
	})
	if sortErr != nil {
		return sortErr
	}
	sorted := make([]Object, len(items))
	for i, j := range order {
		sorted[i] = items[j]
	}
	copy(items, sorted)
	return nil
}

// SortOptions reads the key and reverse keyword arguments accepted by
// sorting callables. A key of None means no key function.
func SortOptions(name string, kwargs *Dict) (key Callable, reverse bool, err error) {
	for _, e := range kwargs.Entries() {
		kw, _ := e[0].(*String)
		switch {
		case kw != nil && kw.value == "key":
			if e[1] == None {
				continue
			}
			c, ok := e[1].(Callable)
			if !ok {
				return nil, false, errz.TypeErrorf("'%s' object is not callable", e[1].Type())
			}
			key = c
		case kw != nil && kw.value == "reverse":
			reverse = e[1].IsTruthy()
		default:
			return nil, false, errz.New(errz.ErrUnexpectedKeyword,
				"%s() got an unexpected keyword argument %s", name, e[0].Inspect())
		}
	}
	return key, reverse, nil
}

package object

import (
	"fmt"
	"strings"

	"github.com/cloudcmds/framevm/errz"
)

// HashKey identifies a dict key. Objects that compare equal produce equal
// hash keys, including across the numeric types.
type HashKey struct {
	Type  Type
	Value any
}

// Hash returns the hash key of an object, or a type fault if the object is
// not hashable.
func Hash(obj Object) (HashKey, error) {
	h, ok := obj.(Hashable)
	if !ok {
		return HashKey{}, errz.TypeErrorf("unhashable type: '%s'", obj.Type())
	}
	return h.HashKey()
}

func hashItems(items []Object) (string, error) {
	var b strings.Builder
	for _, item := range items {
		key, err := Hash(item)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s:%v\x00", key.Type, key.Value)
	}
	return b.String(), nil
}

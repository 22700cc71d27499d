package vm

import (
	"github.com/cloudcmds/framevm/bytecode"
	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/object"
)

// keywordArgs is an ordered name to value mapping from which bound names
// are removed as binding proceeds.
type keywordArgs struct {
	names  []string
	values map[string]object.Object
}

func newKeywordArgs(kwargs *object.Dict) (*keywordArgs, error) {
	kw := &keywordArgs{values: make(map[string]object.Object, kwargs.Len())}
	for _, entry := range kwargs.Entries() {
		name, ok := entry[0].(*object.String)
		if !ok {
			return nil, errz.TypeErrorf("keywords must be strings, not %s", entry[0].Type())
		}
		kw.names = append(kw.names, name.Value())
		kw.values[name.Value()] = entry[1]
	}
	return kw, nil
}

func (kw *keywordArgs) take(name string) (object.Object, bool) {
	value, ok := kw.values[name]
	if ok {
		delete(kw.values, name)
	}
	return value, ok
}

// remaining returns the unconsumed names in call order.
func (kw *keywordArgs) remaining() []string {
	var names []string
	for _, name := range kw.names {
		if _, ok := kw.values[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// bindArguments computes the initial fast-locals of a call. It depends only
// on its inputs: the parameter metadata of the code object, the defaults
// captured by the closure, the closure's snapshot of its defining locals and
// the call's arguments. Neither kwargs nor snapshot is modified.
//
// Positional arguments fill positional-only then positional-or-keyword
// parameters. Remaining positional-or-keyword parameters come from keywords
// or from the positional defaults, which align with the last declared
// positional parameters. Keyword-only parameters come from keywords or the
// keyword-only defaults. Surplus positional and keyword arguments go to the
// variadic slots when declared and are errors otherwise.
func bindArguments(
	code *bytecode.Code,
	defaults []object.Object,
	kwDefaults *object.Dict,
	snapshot map[string]object.Object,
	args []object.Object,
	kwargs *object.Dict,
) (map[string]object.Object, error) {
	name := code.Name()
	posOnly, posOrKeyword, kwOnly := code.ParamNames()
	positional := append(posOnly, posOrKeyword...)

	kw, err := newKeywordArgs(kwargs)
	if err != nil {
		return nil, err
	}

	// Defaults pair with the trailing positional parameters.
	if len(defaults) > len(positional) {
		return nil, errz.MalformedCodef("%s() has %d defaults for %d positional parameters",
			name, len(defaults), len(positional))
	}
	firstDefault := len(positional) - len(defaults)

	bound := make(map[string]object.Object, code.VarNameCount())
	for i, param := range positional {
		if i < len(args) {
			bound[param] = args[i]
		}
	}

	if len(args) > len(positional) {
		if !code.HasVarArgs() {
			return nil, errz.New(errz.ErrArity, "%s() takes %d positional argument%s but %d %s given",
				name, len(positional), plural(len(positional)), len(args), wasWere(len(args)))
		}
		extra := make([]object.Object, len(args)-len(positional))
		copy(extra, args[len(positional):])
		bound[code.VarArgsName()] = object.NewTuple(extra)
	} else if code.HasVarArgs() {
		bound[code.VarArgsName()] = object.NewTuple(nil)
	}

	for i, param := range positional {
		if _, ok := bound[param]; ok {
			continue
		}
		if i >= len(posOnly) {
			if value, ok := kw.take(param); ok {
				bound[param] = value
				continue
			}
		}
		if i >= firstDefault {
			bound[param] = defaults[i-firstDefault]
			continue
		}
		return nil, errz.New(errz.ErrMissingArgument, "%s() missing required argument: '%s'", name, param)
	}

	for _, param := range kwOnly {
		if value, ok := kw.take(param); ok {
			bound[param] = value
			continue
		}
		if value, ok := kwDefaults.GetString(param); ok {
			bound[param] = value
			continue
		}
		return nil, errz.New(errz.ErrMissingArgument,
			"%s() missing required keyword-only argument: '%s'", name, param)
	}

	extra := kw.remaining()
	if code.HasVarKeywords() {
		collected := object.NewDict()
		for _, key := range extra {
			collected.SetString(key, kw.values[key])
		}
		bound[code.VarKeywordsName()] = collected
	} else if len(extra) > 0 {
		key := extra[0]
		for i, param := range positional {
			if param == key && i >= len(posOnly) {
				return nil, errz.New(errz.ErrUnexpectedKeyword,
					"%s() got multiple values for argument '%s'", name, key)
			}
		}
		return nil, errz.New(errz.ErrUnexpectedKeyword,
			"%s() got an unexpected keyword argument '%s'", name, key)
	}

	locals := make(map[string]object.Object, len(snapshot)+len(bound))
	for k, v := range snapshot {
		locals[k] = v
	}
	for k, v := range bound {
		locals[k] = v
	}
	return locals, nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func wasWere(n int) string {
	if n == 1 {
		return "was"
	}
	return "were"
}

package builtins

// FuncSpec documents a builtin function.
type FuncSpec struct {
	Name    string
	Doc     string
	Args    []string
	Returns string
	Example string
}

// Docs returns documentation for all builtin functions.
func Docs() []FuncSpec {
	return builtinDocs
}

var builtinDocs = []FuncSpec{
	{
		Name:    "abs",
		Doc:     "Return the absolute value of a number",
		Args:    []string{"x"},
		Returns: "int|float",
		Example: "abs(-3)",
	},
	{
		Name:    "all",
		Doc:     "Return True if every item of the iterable is truthy",
		Args:    []string{"iterable"},
		Returns: "bool",
		Example: "all([True, 1, 'yes'])",
	},
	{
		Name:    "any",
		Doc:     "Return True if any item of the iterable is truthy",
		Args:    []string{"iterable"},
		Returns: "bool",
		Example: "any([False, 0, 'yes'])",
	},
	{
		Name:    "bool",
		Doc:     "Convert a value to a bool",
		Args:    []string{"value?"},
		Returns: "bool",
		Example: "bool(1)",
	},
	{
		Name:    "callable",
		Doc:     "Return True if the value can be called",
		Args:    []string{"value"},
		Returns: "bool",
		Example: "callable(len)",
	},
	{
		Name:    "dict",
		Doc:     "Build a dict from a mapping or pairs plus keyword arguments",
		Args:    []string{"mapping?", "**kwargs"},
		Returns: "dict",
		Example: "dict(a=1, b=2)",
	},
	{
		Name:    "dir",
		Doc:     "List the method names of a value",
		Args:    []string{"value"},
		Returns: "list",
		Example: "dir('abc')",
	},
	{
		Name:    "enumerate",
		Doc:     "Iterate over (index, item) pairs",
		Args:    []string{"iterable", "start=0"},
		Returns: "iterator",
		Example: "list(enumerate(['a', 'b'], 1))",
	},
	{
		Name:    "filter",
		Doc:     "Iterate over the items for which fn returns a truthy value",
		Args:    []string{"fn", "iterable"},
		Returns: "iterator",
		Example: "list(filter(None, [0, 1, 2]))",
	},
	{
		Name:    "float",
		Doc:     "Convert a number or string to a float",
		Args:    []string{"value?"},
		Returns: "float",
		Example: "float('2.5')",
	},
	{
		Name:    "getattr",
		Doc:     "Return a named method of a value, or a default",
		Args:    []string{"value", "name", "default?"},
		Returns: "any",
		Example: "getattr([], 'append')",
	},
	{
		Name:    "int",
		Doc:     "Convert a number or string to an int",
		Args:    []string{"value?"},
		Returns: "int",
		Example: "int('42')",
	},
	{
		Name:    "isinstance",
		Doc:     "Return True if the value is of the given type or types",
		Args:    []string{"value", "types"},
		Returns: "bool",
		Example: "isinstance(True, int)",
	},
	{
		Name:    "iter",
		Doc:     "Return an iterator over an iterable",
		Args:    []string{"iterable"},
		Returns: "iterator",
		Example: "iter([1, 2])",
	},
	{
		Name:    "len",
		Doc:     "Return the number of items in a container",
		Args:    []string{"container"},
		Returns: "int",
		Example: "len([1, 2, 3])",
	},
	{
		Name:    "list",
		Doc:     "Build a list from an iterable",
		Args:    []string{"iterable?"},
		Returns: "list",
		Example: "list(range(3))",
	},
	{
		Name:    "map",
		Doc:     "Iterate over fn applied to the items of the iterables",
		Args:    []string{"fn", "*iterables"},
		Returns: "iterator",
		Example: "list(map(str, [1, 2]))",
	},
	{
		Name:    "max",
		Doc:     "Return the largest item",
		Args:    []string{"*items", "key=None", "default?"},
		Returns: "any",
		Example: "max([3, 1, 2])",
	},
	{
		Name:    "min",
		Doc:     "Return the smallest item",
		Args:    []string{"*items", "key=None", "default?"},
		Returns: "any",
		Example: "min(3, 1, 2)",
	},
	{
		Name:    "next",
		Doc:     "Advance an iterator, returning the default when exhausted",
		Args:    []string{"iterator", "default?"},
		Returns: "any",
		Example: "next(iter([1]))",
	},
	{
		Name:    "print",
		Doc:     "Write values to standard output",
		Args:    []string{"*values", "sep=' '", "end='\\n'"},
		Returns: "None",
		Example: "print('a', 'b', sep='-')",
	},
	{
		Name:    "range",
		Doc:     "Return an immutable sequence of integers",
		Args:    []string{"start?", "stop", "step?"},
		Returns: "range",
		Example: "range(0, 10, 2)",
	},
	{
		Name:    "repr",
		Doc:     "Return the printable representation of a value",
		Args:    []string{"value"},
		Returns: "str",
		Example: "repr('x')",
	},
	{
		Name:    "reversed",
		Doc:     "Iterate over a sequence in reverse order",
		Args:    []string{"sequence"},
		Returns: "iterator",
		Example: "list(reversed([1, 2, 3]))",
	},
	{
		Name:    "sorted",
		Doc:     "Return a new sorted list of the items of an iterable",
		Args:    []string{"iterable", "key=None", "reverse=False"},
		Returns: "list",
		Example: "sorted([3, 1, 2], reverse=True)",
	},
	{
		Name:    "str",
		Doc:     "Convert a value to a str",
		Args:    []string{"value?"},
		Returns: "str",
		Example: "str(42)",
	},
	{
		Name:    "sum",
		Doc:     "Add up the items of an iterable",
		Args:    []string{"iterable", "start=0"},
		Returns: "int|float",
		Example: "sum([1, 2, 3])",
	},
	{
		Name:    "tuple",
		Doc:     "Build a tuple from an iterable",
		Args:    []string{"iterable?"},
		Returns: "tuple",
		Example: "tuple([1, 2])",
	},
	{
		Name:    "type",
		Doc:     "Return the type name of a value",
		Args:    []string{"value"},
		Returns: "str",
		Example: "type(1.5)",
	},
	{
		Name:    "zip",
		Doc:     "Iterate over tuples pairing the items of the iterables",
		Args:    []string{"*iterables"},
		Returns: "iterator",
		Example: "list(zip([1, 2], 'ab'))",
	},
}

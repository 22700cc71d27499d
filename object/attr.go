package object

// AttrSpec describes a method available on an object.
// This provides metadata for introspection and documentation.
type AttrSpec struct {
	// Name is the method name (e.g., "split", "append").
	Name string

	// Doc is a short description of what the method does.
	Doc string

	// Args lists parameter names (e.g., ["sep"] or ["old", "new"]).
	// Empty for methods that take no arguments.
	Args []string

	// Returns describes the return type (e.g., "list", "str", "bool").
	Returns string
}

// AttrNames returns just the attribute names from a slice of AttrSpec.
func AttrNames(attrs []AttrSpec) []string {
	names := make([]string, len(attrs))
	for i, attr := range attrs {
		names[i] = attr.Name
	}
	return names
}

package bytecode

// Stats contains statistics about a code object and its nested code.
// This is useful for auditing artifacts before execution.
type Stats struct {
	// InstructionBytes is the total length of all instruction streams.
	InstructionBytes int

	// ConstantCount is the total number of constant pool entries.
	ConstantCount int

	// NameCount is the total number of name pool entries.
	NameCount int

	// FunctionCount is the number of nested code objects.
	FunctionCount int

	// MaxDepth is the deepest nesting of code objects, starting at 1.
	MaxDepth int
}

// Stats returns statistics about this code object and its descendants.
func (c *Code) Stats() Stats {
	var stats Stats
	var visit func(code *Code, depth int)
	visit = func(code *Code, depth int) {
		stats.InstructionBytes += len(code.instructions)
		stats.ConstantCount += len(code.constants)
		stats.NameCount += len(code.names)
		if depth > stats.MaxDepth {
			stats.MaxDepth = depth
		}
		for _, child := range code.Children() {
			stats.FunctionCount++
			visit(child, depth+1)
		}
	}
	visit(c, 1)
	return stats
}

// Package bytecode provides the immutable code objects executed by the
// framevm virtual machine, along with the tools that produce and inspect them.
//
// # Key Types
//
//   - [Code]: an immutable code object (module body or function body)
//   - [Listing]: the decoded instruction sequence of a code object
//   - [Instruction]: one decoded instruction with its folded argument
//   - [Assembler]: builds code objects from symbolic instructions
//
// # Encoding
//
// Instructions are stored as two-byte units: an opcode byte followed by an
// argument byte. An argument wider than one byte is written as up to three
// EXTENDED_ARG prefixes, most significant byte first. [Decode] folds the
// prefixes into the instruction that follows them; the folded instruction
// begins at the offset of its first prefix, and only such start offsets are
// valid jump targets.
//
// # Immutability
//
// Code objects are immutable after construction. Constructors copy input
// slices and accessors never return internal state:
//
//	code.ConstantAt(i)
//	code.NameAt(j)
//	code.VarNameAt(k)
//
// # Package Dependencies
//
// This package depends on [github.com/cloudcmds/framevm/op] and
// [github.com/cloudcmds/framevm/errz] only. Constants are stored as []any and
// converted to runtime values by the VM when a code object is first run.
//
// # Usage
//
//	asm := bytecode.NewAssembler("main")
//	asm.LoadConst(int64(40)).LoadConst(int64(2)).
//		Emit(op.BinaryOp, int(op.Add)).
//		Return()
//	code, err := asm.Assemble()
//	if err != nil {
//	    return err
//	}
//	machine, err := vm.New(code)
//	if err != nil {
//	    return err
//	}
//	result, err := machine.Run(ctx)
package bytecode

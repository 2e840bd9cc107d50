// Package ctype constructs and inspects the compiler's type descriptors:
// int, char, pointer-to-T and array-of-T. Grounded on type.c's int_type/
// pointer_to constructors (original_source), generalized to the four kinds
// spec.md's data model names.
package ctype

import "fmt"

// Kind distinguishes the four type shapes the compiler supports.
type Kind int

const (
	Int Kind = iota
	Char
	Ptr
	Array
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Char:
		return "char"
	case Ptr:
		return "ptr"
	case Array:
		return "array"
	default:
		return "unknown"
	}
}

// Type is an immutable, freely-shared type descriptor. Base is non-nil for
// Ptr and Array; Len is meaningful only for Array.
type Type struct {
	Kind Kind
	Base *Type
	Len  int // element count, Array only
}

// NewInt returns a fresh descriptor for `int`.
func NewInt() *Type { return &Type{Kind: Int} }

// NewChar returns a fresh descriptor for `char`.
func NewChar() *Type { return &Type{Kind: Char} }

// NewPtr returns a fresh descriptor for `base*`.
func NewPtr(base *Type) *Type { return &Type{Kind: Ptr, Base: base} }

// NewArray returns a fresh descriptor for `base[len]`.
func NewArray(base *Type, len int) *Type { return &Type{Kind: Array, Base: base, Len: len} }

// IsPointerLike holds for Ptr and Array — anywhere the spec says "base is
// non-null", matching spec.md §4.2's predicate used by both the resolver
// (pointer arithmetic) and codegen (scaling).
func (t *Type) IsPointerLike() bool {
	return t != nil && t.Base != nil
}

// SizeOf returns the type's size in bytes. size_of(Int) = size_of(Ptr) = 8
// on this AArch64 target (spec.md §9 corrects the source's 16-byte figure,
// which was a bug, not an intentional ABI choice); size_of(Char) = 1;
// size_of(Array(b,n)) = size_of(b) * n.
func (t *Type) SizeOf() int {
	switch t.Kind {
	case Int, Ptr:
		return 8
	case Char:
		return 1
	case Array:
		return t.Base.SizeOf() * t.Len
	default:
		panic(fmt.Sprintf("ctype: SizeOf on malformed type kind %d", t.Kind))
	}
}

// String renders a type the way a diagnostic or debug dump would want to
// show it, e.g. "char*", "int[10]".
func (t *Type) String() string {
	switch t.Kind {
	case Int:
		return "int"
	case Char:
		return "char"
	case Ptr:
		return t.Base.String() + "*"
	case Array:
		return fmt.Sprintf("%s[%d]", t.Base.String(), t.Len)
	default:
		return "?"
	}
}

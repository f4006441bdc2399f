package memacc

import "unsafe"

// load and store go through typed pointers so that the device sees exactly one
// access of the requested width. They are kept out of line so the compiler
// cannot merge or split them with surrounding code.

//go:noinline
func load(p unsafe.Pointer, width Width) uint64 {
	switch width {
	case WidthByte:
		return uint64(*(*uint8)(p))
	case WidthHalfword:
		return uint64(*(*uint16)(p))
	case WidthWord:
		return uint64(*(*uint32)(p))
	default:
		return uint64(*(*uint)(p))
	}
}

//go:noinline
func store(p unsafe.Pointer, width Width, v uint64) {
	switch width {
	case WidthByte:
		*(*uint8)(p) = uint8(v)
	case WidthHalfword:
		*(*uint16)(p) = uint16(v)
	case WidthWord:
		*(*uint32)(p) = uint32(v)
	default:
		*(*uint)(p) = uint(v)
	}
}

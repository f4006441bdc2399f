// Package memacc maps pages of a physical memory device and performs typed
// loads and stores inside them.
package memacc

import (
	"unsafe"

	"github.com/pkg/errors"

	"devmem/internal/common"
)

const (
	PageSize = 4096
	PageMask = PageSize - 1
)

// PageBase returns addr rounded down to a page boundary.
func PageBase(addr uint64) uint64 {
	return addr &^ PageMask
}

// PageOffset returns the offset of addr inside its page.
func PageOffset(addr uint64) uint64 {
	return addr & PageMask
}

// Width is the size of a single memory access.
type Width int

const (
	WidthByte Width = iota + 1
	WidthHalfword
	WidthWord
	WidthLong
)

// DefaultCode is the access type used when none is given.
const DefaultCode = 'w'

// AccessCode returns the lower-cased first character of a type argument, or 0
// for an empty argument.
func AccessCode(arg string) byte {
	if arg == "" {
		return 0
	}
	return lower(arg[0])
}

// ParseWidth resolves an access type character. Codes are case-insensitive.
func ParseWidth(code byte) (Width, error) {
	switch lower(code) {
	case 'b':
		return WidthByte, nil
	case 'h':
		return WidthHalfword, nil
	case 'w':
		return WidthWord, nil
	case 'l':
		return WidthLong, nil
	}
	return 0, common.IllegalAccess(errors.Errorf("Illegal data type '%c'.", code))
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

// Valid reports whether w is one of the four access widths.
func (w Width) Valid() bool {
	return w >= WidthByte && w <= WidthLong
}

// Size returns the number of bytes moved by one access. Long is the native
// word size of the platform. Invalid widths have size 0.
func (w Width) Size() int {
	switch w {
	case WidthByte:
		return 1
	case WidthHalfword:
		return 2
	case WidthWord:
		return 4
	case WidthLong:
		return int(unsafe.Sizeof(uint(0)))
	default:
		return 0
	}
}

// Code returns the command line character selecting w.
func (w Width) Code() byte {
	switch w {
	case WidthByte:
		return 'b'
	case WidthHalfword:
		return 'h'
	case WidthWord:
		return 'w'
	case WidthLong:
		return 'l'
	default:
		return '?'
	}
}

// Truncate drops the bits of v that do not fit in w.
func (w Width) Truncate(v uint64) uint64 {
	bits := w.Size() * 8
	if bits >= 64 {
		return v
	}
	return v & (1<<bits - 1)
}

func (w Width) String() string {
	switch w {
	case WidthByte:
		return "byte"
	case WidthHalfword:
		return "halfword"
	case WidthWord:
		return "word"
	case WidthLong:
		return "long"
	default:
		return "invalid"
	}
}

package memacc

import (
	"fmt"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"devmem/internal/common"
)

// ErrNotMapped is returned for accesses through a window that has been unmapped.
var ErrNotMapped = errors.New("memory window not mapped")

// Window is one mapped page of a memory device.
type Window struct {
	BaseAccessor
	mem      []byte
	writable bool
}

func newWindow(base uint64, mem []byte, writable bool) *Window {
	return &Window{
		BaseAccessor: BaseAccessor{
			StartAddress: base,
			EndAddress:   base + uint64(len(mem)) - 1,
		},
		mem:      mem,
		writable: writable,
	}
}

func (w *Window) Mapped() bool   { return w.mem != nil }
func (w *Window) Writable() bool { return w.writable }

// Pointer returns the in-process address of the physical address addr, or nil
// if addr is not inside the mapped page.
func (w *Window) Pointer(addr uint64) unsafe.Pointer {
	if w.mem == nil || !w.AddrInRange(addr) {
		return nil
	}
	return unsafe.Pointer(&w.mem[addr-w.StartAddress])
}

// Read loads one value of the given width from addr, zero-extended.
func (w *Window) Read(addr uint64, width Width) (uint64, error) {
	off, err := w.check(addr, width)
	if err != nil {
		return 0, err
	}
	return load(unsafe.Pointer(&w.mem[off]), width), nil
}

// Write stores v truncated to width at addr. The stored value is not read back.
func (w *Window) Write(addr uint64, width Width, v uint64) error {
	if !w.writable {
		return common.IllegalAccess(errors.Errorf("Page at 0x%X is mapped read-only.", w.StartAddress))
	}
	off, err := w.check(addr, width)
	if err != nil {
		return err
	}
	store(unsafe.Pointer(&w.mem[off]), width, v)
	return nil
}

// check returns the offset of addr in the page if an access of width fits.
func (w *Window) check(addr uint64, width Width) (uint64, error) {
	if w.mem == nil {
		return 0, ErrNotMapped
	}
	if !width.Valid() {
		return 0, common.IllegalAccess(errors.Errorf("Illegal data type '%c'.", width.Code()))
	}
	if !w.AddrInRange(addr) {
		return 0, common.IllegalAccess(errors.Errorf("Address 0x%X is outside the page mapped at 0x%X.", addr, w.StartAddress))
	}
	size := uint32(width.Size())
	if w.BytesInRange(addr, size) < size {
		return 0, common.IllegalAccess(errors.Errorf("Access of %d bytes at 0x%X crosses the %d byte page.", size, addr, PageSize))
	}
	return addr - w.StartAddress, nil
}

// Unmap releases the page. Calling it again is a no-op.
func (w *Window) Unmap() error {
	if w.mem == nil {
		return nil
	}
	if err := unix.Munmap(w.mem); err != nil {
		return common.Syscall("munmap", errors.WithStack(err))
	}
	w.mem = nil
	return nil
}

func (w *Window) String() string {
	state := "mapped"
	if w.mem == nil {
		state = "unmapped"
	}
	return fmt.Sprintf("Window; %s; Writable: %t; %s", w.BaseAccessor.String(), w.writable, state)
}

package memacc

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"devmem/internal/common"
)

// DefaultDevice is the physical memory device node.
const DefaultDevice = "/dev/mem"

// Device is an open physical memory device.
type Device struct {
	path     string
	file     *os.File
	writable bool
}

// OpenDevice opens path for synchronous access, read-write when writable is
// set and read-only otherwise.
func OpenDevice(path string, writable bool) (*Device, error) {
	flags := os.O_RDONLY | unix.O_SYNC
	if writable {
		flags = os.O_RDWR | unix.O_SYNC
	}
	f, err := os.OpenFile(path, flags, 0)
	if err != nil {
		return nil, common.Syscall("open", errors.WithStack(err))
	}
	return &Device{path: path, file: f, writable: writable}, nil
}

func (d *Device) Path() string   { return d.path }
func (d *Device) Writable() bool { return d.writable }

// Map maps the page containing target. The mapping is shared so stores reach
// the device, and writable only if the device was opened for writing.
func (d *Device) Map(target uint64) (*Window, error) {
	base := PageBase(target)
	prot := unix.PROT_READ
	if d.writable {
		prot |= unix.PROT_WRITE
	}
	mem, err := unix.Mmap(int(d.file.Fd()), int64(base), PageSize, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, common.Syscall("mmap", errors.WithStack(err))
	}
	return newWindow(base, mem, d.writable), nil
}

func (d *Device) Close() error {
	return d.file.Close()
}

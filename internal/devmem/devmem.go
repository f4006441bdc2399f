// Package devmem reads or writes a single value in physical memory.
package devmem

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"devmem/internal/memacc"
)

// Config describes one memory access.
type Config struct {
	// Device is the memory device node, /dev/mem unless overridden.
	Device string
	// Target is the physical address acted upon.
	Target uint64
	// Type is the access type argument as given; only its first character is used.
	Type string
	// Value is stored at Target when Write is set.
	Value uint64
	Write bool
	// Readback loads the value again after a write and prints it.
	Readback bool
}

type flusher interface {
	Flush() error
}

// Run opens the device, maps the page holding cfg.Target and performs one
// read or write. Progress lines go to out, which is flushed after every line.
// The page is unmapped and the device closed before Run returns.
func Run(cfg Config, out io.Writer, logger log.Logger) (err error) {
	if cfg.Device == "" {
		cfg.Device = memacc.DefaultDevice
	}
	printf := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format, args...)
		if f, ok := out.(flusher); ok {
			f.Flush()
		}
	}

	level.Debug(logger).Log("msg", "opening device", "device", cfg.Device, "write", cfg.Write)
	dev, err := memacc.OpenDevice(cfg.Device, cfg.Write)
	if err != nil {
		return err
	}
	defer dev.Close()
	printf("%s opened.\n", cfg.Device)

	win, err := dev.Map(cfg.Target)
	if err != nil {
		return err
	}
	defer func() {
		uerr := win.Unmap()
		if uerr == nil {
			level.Debug(logger).Log("msg", "unmapped page", "base", fmt.Sprintf("%#x", win.StartAddress))
		} else if err == nil {
			err = uerr
		}
	}()
	level.Debug(logger).Log(
		"msg", "mapped page",
		"base", fmt.Sprintf("%#x", win.StartAddress),
		"offset", fmt.Sprintf("%#x", memacc.PageOffset(cfg.Target)),
		"size", humanize.IBytes(memacc.PageSize),
	)
	printf("Memory mapped at address %p.\n", win.Pointer(win.StartAddress))

	width, err := memacc.ParseWidth(memacc.AccessCode(cfg.Type))
	if err != nil {
		return err
	}

	if !cfg.Write {
		v, err := win.Read(cfg.Target, width)
		if err != nil {
			return err
		}
		level.Debug(logger).Log("msg", "read", "width", width, "value", fmt.Sprintf("%#x", v))
		printf("Value at address 0x%X (%p): 0x%X\n", cfg.Target, win.Pointer(cfg.Target), v)
		return nil
	}

	if err := win.Write(cfg.Target, width, cfg.Value); err != nil {
		return err
	}
	level.Debug(logger).Log("msg", "wrote", "width", width, "value", fmt.Sprintf("%#x", width.Truncate(cfg.Value)))
	printf("Written 0x%X\n", cfg.Value)

	if cfg.Readback {
		v, err := win.Read(cfg.Target, width)
		if err != nil {
			return err
		}
		printf("Readback 0x%X\n", v)
	}
	return nil
}

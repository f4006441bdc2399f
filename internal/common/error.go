package common

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

// Kind classifies an Error. Each kind maps to one process exit code.
type Kind int

const (
	KindUsage         Kind = iota + 1 // bad or missing command line arguments
	KindSyscall                       // open, mmap or munmap failed
	KindIllegalAccess                 // access type or range rejected after the device was mapped
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindSyscall:
		return "syscall"
	case KindIllegalAccess:
		return "illegal access"
	default:
		return "unknown"
	}
}

// ExitCode returns the process exit status for the kind.
func (k Kind) ExitCode() int {
	if k == KindIllegalAccess {
		return 2
	}
	return 1
}

// Error is the error object returned by every fallible step of a memory access.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Usage wraps an argument error.
func Usage(err error) error {
	return &Error{Kind: KindUsage, Err: err}
}

// Syscall wraps a failed system call. err should carry the call-site stack,
// see errors.WithStack; it is used for the file and line of the diagnostic.
func Syscall(op string, err error) error {
	return &Error{Kind: KindSyscall, Op: op, Err: err}
}

// IllegalAccess wraps an access that cannot be performed on the mapped window.
func IllegalAccess(err error) error {
	return &Error{Kind: KindIllegalAccess, Err: err}
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode maps err to a process exit status. Errors that did not come through
// one of the constructors above are treated as fatal.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.ExitCode()
	}
	return 1
}

// Errno extracts the system error number carried by err, 0 if there is none.
func Errno(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return 0
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Report writes the diagnostic for err to w and returns the exit code.
// Nothing is written for a nil error.
func Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Kind: KindSyscall, Err: err}
	}

	var msg string
	switch e.Kind {
	case KindSyscall:
		msg = syscallDiagnostic(e.Err)
	case KindUsage:
		msg = fmt.Sprintf("error: %v", e.Err)
	default:
		msg = e.Err.Error()
	}

	if isTerminal(w) {
		c := color.New(color.FgRed)
		c.EnableColor()
		c.Fprintln(w, msg)
	} else {
		fmt.Fprintln(w, msg)
	}
	return e.Kind.ExitCode()
}

func syscallDiagnostic(err error) string {
	var (
		file = "?"
		line = "0"
	)
	var st stackTracer
	if errors.As(err, &st) {
		if frames := st.StackTrace(); len(frames) > 0 {
			file = fmt.Sprintf("%s", frames[0])
			line = fmt.Sprintf("%d", frames[0])
		}
	}

	errno := Errno(err)
	text := errors.Cause(err).Error()
	if errno != 0 {
		text = errno.Error()
	}
	return fmt.Sprintf("Error at line %s, file %s (%d) [%s]", line, file, int(errno), text)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

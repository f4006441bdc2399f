// Command devmem reads or writes one value at a physical memory address
// through /dev/mem.
//
//	devmem [<flags>] <address> [<type> [<data>]]
package main

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/prometheus/common/version"
	"gopkg.in/alecthomas/kingpin.v2"

	"devmem/internal/common"
	"devmem/internal/devmem"
	"devmem/internal/memacc"
)

// number is a kingpin value holding an unsigned integer with its base taken
// from the prefix: 0x for hex, a leading 0 for octal, decimal otherwise.
type number struct {
	value uint64
	set   bool
}

func (n *number) Set(s string) error {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return err
	}
	n.value, n.set = v, true
	return nil
}

func (n *number) String() string {
	return "0x" + strconv.FormatUint(n.value, 16)
}

type options struct {
	cfg     devmem.Config
	verbose bool
}

func newApp(name string, stderr io.Writer, opts *options) *kingpin.Application {
	app := kingpin.New(name, "Read or write a single value in physical memory.").
		UsageWriter(stderr).
		ErrorWriter(stderr)
	app.Version(version.Print("devmem"))
	app.HelpFlag.Short('h')

	app.Flag("verbose", "Enable verbose logging.").Short('v').Default("false").BoolVar(&opts.verbose)
	app.Flag("device", "Memory device to map.").Short('d').Envar("DEVMEM_DEVICE").Default(memacc.DefaultDevice).StringVar(&opts.cfg.Device)
	app.Flag("readback", "Read the value back after writing it.").Default("false").BoolVar(&opts.cfg.Readback)

	return app
}

// parseArgs turns the command line into a Config. Numbers are validated here;
// the access type is only checked when the access is performed.
func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	app := newApp(filepath.Base(args[0]), stderr, opts)

	address := &number{}
	data := &number{}
	app.Arg("address", "memory address to act upon").Required().SetValue(address)
	app.Arg("type", "access operation type : [b]yte, [h]alfword, [w]ord, [l]ong").Default(string(rune(memacc.DefaultCode))).StringVar(&opts.cfg.Type)
	app.Arg("data", "data to be written").SetValue(data)

	if _, err := app.Parse(args[1:]); err != nil {
		common.Report(stderr, common.Usage(err))
		app.Usage(nil)
		return nil, common.Usage(err)
	}

	opts.cfg.Target = address.value
	opts.cfg.Value = data.value
	opts.cfg.Write = data.set
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return common.ExitCode(err)
	}

	severity := common.SeverityWarning
	if opts.verbose {
		severity = common.SeverityDebug
	}
	logger := common.NewLogger(stderr, severity)

	out := bufio.NewWriter(stdout)
	defer out.Flush()

	return common.Report(stderr, devmem.Run(opts.cfg, out, logger))
}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

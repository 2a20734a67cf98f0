// hashwire inspects and converts Hash records and snapshot archives.
//
// Usage:
//
//	hashwire [global flags] dump FILE        print a record or the newest archive snapshot
//	hashwire [global flags] convert IN OUT   re-encode a record with another serializer
//	hashwire [global flags] append ARCHIVE RECORD...
//	hashwire [global flags] verify ARCHIVE   decode every archive record
//
// The serializer of an input record is detected unless --serializer is
// given. Archive options (framing, compression, digests) come from the
// file named by --config.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/acolita/hashwire/pkg/archive"
	"github.com/acolita/hashwire/pkg/hash"
	"github.com/acolita/hashwire/pkg/serializer"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globals holds the flags shared by every command.
type globals struct {
	configPath string
	serializer string
	format     string
	all        bool
	to         string
	logLevel   string
	noColor    bool

	cfg    *serializer.Config
	logger *slog.Logger
	stdout io.Writer
}

func run(args []string, stdout, stderr io.Writer) error {
	g := &globals{stdout: stdout}

	flagSet := pflag.NewFlagSet("hashwire", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&g.configPath, "config", "c", "", "YAML configuration file")
	flagSet.StringVarP(&g.serializer, "serializer", "s", "", "serializer of input records (default: detect)")
	flagSet.StringVarP(&g.format, "format", "f", "text", "dump format: text or yaml")
	flagSet.BoolVarP(&g.all, "all", "a", false, "dump every archive record instead of the newest")
	flagSet.StringVarP(&g.to, "to", "t", "", "serializer to convert or append with (default: from config)")
	flagSet.StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flagSet.BoolVar(&g.noColor, "no-color", false, "disable coloured output")
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "Usage: hashwire [flags] dump|convert|append|verify ARGS...\n\nFlags:\n")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	g.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	if g.noColor {
		color.NoColor = true
	}

	g.cfg = serializer.Default()
	if g.configPath != "" {
		cfg, err := serializer.LoadFile(g.configPath)
		if err != nil {
			return err
		}
		g.cfg = cfg
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		flagSet.Usage()
		return errors.New("missing command")
	}
	command, operands := rest[0], rest[1:]
	switch command {
	case "dump":
		if len(operands) != 1 {
			return errors.New("dump takes one file")
		}
		return g.dump(operands[0])
	case "convert":
		if len(operands) != 2 {
			return errors.New("convert takes an input and an output file")
		}
		return g.convert(operands[0], operands[1])
	case "append":
		if len(operands) < 2 {
			return errors.New("append takes an archive and at least one record file")
		}
		return g.append(operands[0], operands[1:])
	case "verify":
		if len(operands) != 1 {
			return errors.New("verify takes one archive")
		}
		return g.verify(operands[0])
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// inputSerializer returns the serializer for data, honouring --serializer.
func (g *globals) inputSerializer(data []byte) (serializer.Serializer, error) {
	name := g.serializer
	if name == "" {
		name = serializer.Detect(data)
	}
	return serializer.New(name, g.cfg)
}

// readRecord decodes the first record of the file at path.
func (g *globals) readRecord(path string) (*hash.Hash, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := g.inputSerializer(data)
	if err != nil {
		return nil, err
	}
	h := hash.New()
	n, err := s.Load(h, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if n < len(data) {
		g.logger.Info("ignoring bytes after first record", "path", path, "bytes", len(data)-n)
	}
	return h, nil
}

// archiveSerializer picks the serializer of an existing archive. Framed
// archives use --serializer or the configured one; a plain archive is
// detected from its first record.
func (g *globals) archiveSerializer(path string) (serializer.Serializer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if g.serializer == "" && !bytes.HasPrefix(data, []byte(archive.Magic)) {
		return g.inputSerializer(data)
	}
	name := g.serializer
	if name == "" {
		name = g.cfg.Serializer
	}
	return serializer.New(name, g.cfg)
}

func (g *globals) openArchive(path string, s serializer.Serializer, readOnly bool) (*archive.Archive, error) {
	opts, err := archive.FromConfig(g.cfg.Archive)
	if err != nil {
		return nil, err
	}
	opts = append(opts, archive.WithLogger(g.logger))
	if readOnly {
		opts = append(opts, archive.WithReadOnly())
	}
	return archive.Open(path, s, opts...)
}

// dump prints the newest record of a record file or archive, or every
// record with --all.
func (g *globals) dump(path string) error {
	s, err := g.archiveSerializer(path)
	if err != nil {
		return err
	}
	a, err := g.openArchive(path, s, true)
	if err != nil {
		return err
	}
	defer a.Close()
	if !g.all {
		h := hash.New()
		if err := a.Last(h); err != nil {
			return err
		}
		return g.write(h)
	}
	i := 0
	for h, err := range a.All() {
		if err != nil {
			return err
		}
		fmt.Fprintln(g.stdout, color.New(color.Faint).Sprintf("# record %d", i))
		if err := g.write(h); err != nil {
			return err
		}
		i++
	}
	return nil
}

func (g *globals) write(h *hash.Hash) error {
	switch g.format {
	case "text":
		_, err := io.WriteString(g.stdout, newPrinter().sprint(h))
		return err
	case "yaml":
		return writeYAML(g.stdout, h)
	default:
		return fmt.Errorf("unknown format %q", g.format)
	}
}

func (g *globals) convert(in, out string) error {
	h, err := g.readRecord(in)
	if err != nil {
		return err
	}
	to := g.to
	if to == "" {
		to = g.cfg.Serializer
	}
	s, err := serializer.New(to, g.cfg)
	if err != nil {
		return err
	}
	data, err := s.Save(h)
	if err != nil {
		return err
	}
	g.logger.Debug("converted record", "from", in, "to", out, "serializer", s.Name(), "bytes", len(data))
	return os.WriteFile(out, data, 0o644)
}

func (g *globals) append(path string, records []string) error {
	name := g.cfg.Serializer
	if g.to != "" {
		name = g.to
	}
	s, err := serializer.New(name, g.cfg)
	if err != nil {
		return err
	}
	a, err := g.openArchive(path, s, false)
	if err != nil {
		return err
	}
	defer a.Close()
	for _, rec := range records {
		h, err := g.readRecord(rec)
		if err != nil {
			return err
		}
		if err := a.Append(h); err != nil {
			return err
		}
	}
	return a.Sync()
}

func (g *globals) verify(path string) error {
	s, err := g.archiveSerializer(path)
	if err != nil {
		return err
	}
	a, err := g.openArchive(path, s, true)
	if err != nil {
		return err
	}
	defer a.Close()
	n, err := a.Verify()
	if err != nil {
		return fmt.Errorf("%s: record %d: %w", path, n, err)
	}
	fmt.Fprintf(g.stdout, "%s: %d records ok\n", path, n)
	return nil
}

// Package archive keeps Hash snapshots in an append-only file.
//
// Every Append adds one record after the existing ones; Last restores the
// newest snapshot, which is how a process picks up its state after a
// restart. A write cut short by a crash leaves a torn record at the end of
// the file; Open drops it and Last never sees it.
//
// An archive is either plain or framed. A plain archive is the bare
// concatenation of serializer records, the same bytes repeated Save2 calls
// produce. A framed archive starts with a Magic header and wraps each
// record in a frame that may compress it and carry a BLAKE3 digest of the
// stored bytes. The format of an existing file is detected on Open;
// options only choose the format of a new file and how new frames are
// written.
//
// # Basic Usage
//
//	a, err := archive.Open("state.hwa", binser.New(), archive.WithCompression(archive.CompressionZstd))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Close()
//	if err := a.Append(state); err != nil {
//	    log.Fatal(err)
//	}
//	restored := hash.New()
//	if err := a.Last(restored); err != nil {
//	    log.Fatal(err)
//	}
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"sync"

	"github.com/acolita/hashwire/internal/wire"
	"github.com/acolita/hashwire/pkg/binser"
	"github.com/acolita/hashwire/pkg/hash"
	"github.com/acolita/hashwire/pkg/serializer"
)

var (
	// ErrCorruptFrame is returned for a frame whose header, digest or
	// compressed payload is invalid.
	ErrCorruptFrame = errors.New("archive: corrupt frame")

	// ErrEmpty is returned by Last when the archive holds no complete
	// record.
	ErrEmpty = errors.New("archive: no complete record")

	// ErrReadOnly is returned by Append on an archive opened with
	// WithReadOnly.
	ErrReadOnly = errors.New("archive: opened read-only")
)

type options struct {
	framed      bool
	compression Compression
	digest      bool
	readOnly    bool
	logger      *slog.Logger
}

// Option configures Open.
type Option func(*options)

// WithFraming makes a new archive framed.
func WithFraming() Option {
	return func(o *options) {
		o.framed = true
	}
}

// WithCompression compresses new frames with c. It implies WithFraming.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.framed = true
		o.compression = c
	}
}

// WithDigest stores a BLAKE3 digest in new frames. It implies WithFraming.
func WithDigest() Option {
	return func(o *options) {
		o.framed = true
		o.digest = true
	}
}

// WithReadOnly opens an existing archive without write access. A torn
// record at the end is skipped instead of being removed.
func WithReadOnly() Option {
	return func(o *options) {
		o.readOnly = true
	}
}

// WithLogger sets the logger for recovery and append events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// FromConfig returns the options described by cfg.
func FromConfig(cfg serializer.ArchiveConfig) ([]Option, error) {
	var opts []Option
	if cfg.Framed {
		opts = append(opts, WithFraming())
	}
	c, err := ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	if c != CompressionNone {
		opts = append(opts, WithCompression(c))
	}
	if cfg.Digest {
		opts = append(opts, WithDigest())
	}
	return opts, nil
}

// Archive is an append-only file of Hash records. It is safe for
// concurrent use within one process; only one process may append to a
// file at a time.
type Archive struct {
	mu      sync.Mutex
	path    string
	f       *os.File
	ser     serializer.Serializer
	opts    options
	framed  bool
	records int

	rec []byte
	buf []byte
}

// Open opens the archive at path, creating it unless WithReadOnly is
// given. Records are written and read with ser.
func Open(path string, ser serializer.Serializer, opts ...Option) (*Archive, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	flag := os.O_RDWR | os.O_CREATE | os.O_APPEND
	if o.readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, err
	}
	a := &Archive{path: path, f: f, ser: ser, opts: o}
	if err := a.recover(); err != nil {
		f.Close()
		return nil, err
	}
	return a, nil
}

// recover detects the file format, counts the records and removes a torn
// record at the end.
func (a *Archive) recover() error {
	data, unmap, err := mapFile(a.path)
	if err != nil {
		return err
	}
	defer unmap()

	if len(data) < len(Magic) && bytes.HasPrefix([]byte(Magic), data) && (len(data) > 0 || a.opts.framed) {
		a.framed = true
		if a.opts.readOnly {
			return nil
		}
		if len(data) > 0 {
			a.opts.logger.Warn("rewriting torn archive header", "path", a.path, "bytes", len(data))
			if err := a.f.Truncate(0); err != nil {
				return err
			}
		}
		_, err := a.f.Write([]byte(Magic))
		return err
	}

	a.framed = bytes.HasPrefix(data, []byte(Magic))
	var end int
	if a.framed {
		end, err = a.scanFrames(data)
	} else {
		end, err = a.scanRecords(data)
	}
	if err != nil {
		return err
	}
	if end == len(data) {
		return nil
	}

	a.opts.logger.Warn("dropping torn record at end of archive",
		"path", a.path, "offset", end, "bytes", len(data)-end, "records", a.records)
	if a.opts.readOnly {
		return nil
	}
	return a.f.Truncate(int64(end))
}

func (a *Archive) scanFrames(data []byte) (int, error) {
	r := wire.NewReader(data[len(Magic):])
	end := len(Magic)
	for !r.EOF() {
		if _, err := nextFrame(r); err != nil {
			if errors.Is(err, wire.ErrUnexpectedEOF) {
				break
			}
			return 0, err
		}
		end = len(Magic) + r.Pos()
		a.records++
	}
	return end, nil
}

func (a *Archive) scanRecords(data []byte) (int, error) {
	scratch := hash.New()
	end := 0
	for end < len(data) {
		n, err := a.ser.Load(scratch, data[end:])
		if err != nil {
			if torn(err) {
				break
			}
			return 0, fmt.Errorf("record %d at offset %d: %w", a.records, end, err)
		}
		end += n
		a.records++
	}
	return end, nil
}

// torn reports whether err means a record ended before its declared size.
func torn(err error) bool {
	return errors.Is(err, binser.ErrTruncated) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, wire.ErrUnexpectedEOF)
}

// aliasesInput reports whether trees decoded by the serializer reference
// the input bytes, which must then outlive the mapping.
func (a *Archive) aliasesInput() bool {
	al, ok := a.ser.(interface{ AliasesInput() bool })
	return ok && al.AliasesInput()
}

// Path returns the file path of the archive.
func (a *Archive) Path() string {
	return a.path
}

// Framed reports whether the archive wraps records in frames.
func (a *Archive) Framed() bool {
	return a.framed
}

// Len returns the number of complete records.
func (a *Archive) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.records
}

// Append writes h as a new record at the end of the archive.
func (a *Archive) Append(h *hash.Hash) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.opts.readOnly {
		return ErrReadOnly
	}

	var err error
	if a.framed {
		a.rec = a.rec[:0]
		if err = a.ser.Save2(h, &a.rec); err != nil {
			return err
		}
		a.buf, err = appendFrame(a.buf[:0], a.rec, a.opts.compression, a.opts.digest)
	} else {
		a.buf = a.buf[:0]
		err = a.ser.Save2(h, &a.buf)
	}
	if err != nil {
		return err
	}

	if _, err := a.f.Write(a.buf); err != nil {
		return fmt.Errorf("appending to %s: %w", a.path, err)
	}
	a.records++
	a.opts.logger.Debug("appended snapshot",
		"path", a.path, "bytes", len(a.buf), "records", a.records)
	return nil
}

// Sync commits the archive to stable storage.
func (a *Archive) Sync() error {
	return a.f.Sync()
}

// Last clears h and decodes the newest complete record into it. It returns
// ErrEmpty when there is none.
func (a *Archive) Last(h *hash.Hash) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, unmap, err := mapFile(a.path)
	if err != nil {
		return err
	}
	defer unmap()

	if !a.framed {
		if a.records == 0 {
			return ErrEmpty
		}
		if a.aliasesInput() {
			data = bytes.Clone(data)
		}
		return a.ser.LoadLastFromSequence(h, data)
	}

	var last frame
	found := false
	if len(data) >= len(Magic) {
		r := wire.NewReader(data[len(Magic):])
		for !r.EOF() {
			f, err := nextFrame(r)
			if err != nil {
				if errors.Is(err, wire.ErrUnexpectedEOF) {
					break
				}
				return err
			}
			last, found = f, true
		}
	}
	if !found {
		return ErrEmpty
	}
	rec, err := last.record()
	if err != nil {
		return err
	}
	if last.compression == CompressionNone && a.aliasesInput() {
		rec = bytes.Clone(rec)
	}
	_, err = a.ser.Load(h, rec)
	return err
}

// All returns every complete record in order. Iteration stops after the
// first error, which is yielded with a nil tree.
func (a *Archive) All() iter.Seq2[*hash.Hash, error] {
	return func(yield func(*hash.Hash, error) bool) {
		data, unmap, err := mapFile(a.path)
		if err != nil {
			yield(nil, err)
			return
		}
		defer unmap()
		if a.aliasesInput() {
			data = bytes.Clone(data)
		}

		if !a.framed {
			for off := 0; off < len(data); {
				h := hash.New()
				n, err := a.ser.Load(h, data[off:])
				if err != nil {
					if !torn(err) {
						yield(nil, fmt.Errorf("record at offset %d: %w", off, err))
					}
					return
				}
				if !yield(h, nil) {
					return
				}
				off += n
			}
			return
		}

		if len(data) < len(Magic) {
			return
		}
		r := wire.NewReader(data[len(Magic):])
		for !r.EOF() {
			f, err := nextFrame(r)
			if errors.Is(err, wire.ErrUnexpectedEOF) {
				return
			}
			var rec []byte
			if err == nil {
				rec, err = f.record()
			}
			h := hash.New()
			if err == nil {
				_, err = a.ser.Load(h, rec)
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(h, nil) {
				return
			}
		}
	}
}

// Verify decodes every record, checking frame digests on the way, and
// returns the number of records read.
func (a *Archive) Verify() (int, error) {
	n := 0
	for _, err := range a.All() {
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Close closes the archive file.
func (a *Archive) Close() error {
	return a.f.Close()
}

package magic

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Result describes the file a patch produced, or would produce for Plan.
type Result struct {
	OriginalPath string
	NewPath      string
	Tag          string
	// OriginalMIME is the sniffed content type before mutation.
	OriginalMIME string
	// PreviousTag is the table signature the file already carried, if any.
	PreviousTag string
	HeaderLen   int
	ContentLen  int
	// Digest is the hex form of the appended digest, empty without one.
	Digest  string
	Padding int64
	Size    int64
}

// Patcher applies Requests to files on disk. A Patcher assumes exclusive
// access to the file for the duration of a call and performs no locking.
type Patcher struct {
	logger hclog.Logger
	filler io.Reader
}

// Option configures a Patcher.
type Option func(*Patcher)

// WithFiller replaces the source of padding bytes. The default is
// crypto/rand.
func WithFiller(r io.Reader) Option {
	return func(p *Patcher) {
		p.filler = r
	}
}

// NewPatcher creates a Patcher logging to logger. A nil logger discards.
func NewPatcher(logger hclog.Logger, opts ...Option) *Patcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	p := &Patcher{
		logger: logger,
		filler: rand.Reader,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan reads the file and reports the result Patch would produce, without
// writing or renaming anything. The file is opened read-write so that a file
// Patch could not open fails here too. Padding bytes are not generated.
func (p *Patcher) Plan(req *Request) (*Result, error) {
	f, err := os.OpenFile(req.Path, os.O_RDWR, 0)
	if err != nil {
		return nil, &IOError{Op: OpOpen, Path: req.Path, Err: err}
	}
	defer f.Close()

	original, err := io.ReadAll(f)
	if err != nil {
		return nil, &IOError{Op: OpRead, Path: req.Path, Err: err}
	}

	_, res := p.layout(req, original)
	p.logger.Info("🔍 Planned patch",
		"path", res.OriginalPath,
		"new_path", res.NewPath,
		"size", res.Size,
		"padding", res.Padding,
	)
	return res, nil
}

// Patch rewrites the file as signature || content [|| digest] [|| filler]
// and renames it to the extension of the requested type.
//
// content is the original file from offset len(signature) onward; the
// original bytes under the signature are lost. The target size is a floor:
// a file already at or above it is never truncated.
//
// Padding is streamed past the end of the original bytes before the header
// is written, so a padding failure leaves the file as it was and is reported
// with Op == OpPad.
//
// A rename failure is reported after the rewrite has been committed. The
// returned IOError then has Op == OpRename and the mutated file remains at
// the original path.
func (p *Patcher) Patch(req *Request) (*Result, error) {
	logger := p.logger.With("path", req.Path, "type", req.Signature.Tag)

	f, err := os.OpenFile(req.Path, os.O_RDWR, 0)
	if err != nil {
		return nil, &IOError{Op: OpOpen, Path: req.Path, Err: err}
	}

	original, err := io.ReadAll(f)
	if err != nil {
		f.Close()
		return nil, &IOError{Op: OpRead, Path: req.Path, Err: err}
	}

	body, res := p.layout(req, original)
	logger.Debug("🔍 Read original file",
		"size", len(original),
		"mime", res.OriginalMIME,
		"previous_type", res.PreviousTag,
		"encoding", req.Encoding.Name,
	)

	if res.Padding > 0 {
		if err := p.pad(f, req.Path, int64(len(original)), int64(len(body)), res.Padding); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := rewrite(f, body, res.Size); err != nil {
		f.Close()
		return nil, &IOError{Op: err.op, Path: req.Path, Err: err.err}
	}
	if err := f.Close(); err != nil {
		return nil, &IOError{Op: OpClose, Path: req.Path, Err: err}
	}
	logger.Info("✍️ Rewrote file",
		"header", res.HeaderLen,
		"content", res.ContentLen,
		"digest", res.Digest,
		"padding", res.Padding,
		"size", res.Size,
	)

	if err := renameNoClobber(req.Path, res.NewPath); err != nil {
		logger.Warn("⚠️ Content rewritten but rename failed", "new_path", res.NewPath, "error", err)
		return res, &IOError{Op: OpRename, Path: req.Path, Err: err}
	}
	logger.Info("✅ Renamed file", "new_path", res.NewPath)
	return res, nil
}

// layout builds signature || content [|| digest] and fills in the Result.
func (p *Patcher) layout(req *Request, original []byte) ([]byte, *Result) {
	sig := req.Signature
	res := &Result{
		OriginalPath: req.Path,
		NewPath:      ReplaceExt(req.Path, sig.Extension),
		Tag:          sig.Tag,
		OriginalMIME: SniffMIME(original),
		HeaderLen:    sig.Len(),
	}
	if prev, ok := Detect(original); ok {
		res.PreviousTag = prev.Tag
	}

	var content []byte
	if len(original) > sig.Len() {
		content = original[sig.Len():]
	}
	res.ContentLen = len(content)

	digest := req.Hash.Sum(content)
	if digest != nil {
		res.Digest = hex.EncodeToString(digest)
	}

	body := make([]byte, 0, sig.Len()+len(content)+len(digest))
	body = append(body, sig.magic...)
	body = append(body, content...)
	body = append(body, digest...)

	if n := int64(len(body)); req.TargetSize > n {
		res.Padding = req.TargetSize - n
	}
	res.Size = int64(len(body)) + res.Padding
	return body, res
}

// pad streams n filler bytes into f at offset. The original bytes end at or
// before offset, so a failure is undone by truncating back to origLen.
func (p *Patcher) pad(f *os.File, path string, origLen, offset, n int64) error {
	growth := offset + n - origLen
	if avail, err := availableSpace(filepath.Dir(path)); err != nil {
		p.logger.Warn("⚠️ Could not check disk space", "path", path, "error", err)
	} else {
		p.logger.Debug("💾 Disk space check", "needed", growth, "available", avail)
		if uint64(growth) > avail {
			return &IOError{Op: OpPad, Path: path, Err: fmt.Errorf("%w: need %d bytes, have %d", ErrInsufficientSpace, growth, avail)}
		}
	}

	if _, err := io.CopyN(io.NewOffsetWriter(f, offset), p.filler, n); err != nil {
		err = fmt.Errorf("failed to write %d padding bytes: %w", n, err)
		if terr := f.Truncate(origLen); terr != nil {
			return &IOError{Op: OpTruncate, Path: path, Err: errors.Join(err, terr)}
		}
		return &IOError{Op: OpPad, Path: path, Err: err}
	}
	return nil
}

type stepError struct {
	op  string
	err error
}

// rewrite writes body at offset 0 and sets the file length to size. Any
// padding between len(body) and size is already in place.
func rewrite(f *os.File, body []byte, size int64) *stepError {
	if _, err := f.WriteAt(body, 0); err != nil {
		return &stepError{op: OpWrite, err: err}
	}
	if err := f.Truncate(size); err != nil {
		return &stepError{op: OpTruncate, err: err}
	}
	if err := f.Sync(); err != nil {
		return &stepError{op: OpSync, err: err}
	}
	return nil
}

// renameNoClobber renames src to dst unless dst already exists. Renaming a
// path to itself is a no-op. On case-insensitive filesystems a dst differing
// from src only in case resolves to src itself and is renamed.
func renameNoClobber(src, dst string) error {
	if src == dst {
		return nil
	}
	dstInfo, err := os.Lstat(dst)
	if err == nil {
		if sameEntry(src, dst, dstInfo) {
			return os.Rename(src, dst)
		}
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Rename(src, dst)
}

func sameEntry(src, dst string, dstInfo os.FileInfo) bool {
	if !strings.EqualFold(src, dst) {
		return false
	}
	srcInfo, err := os.Lstat(src)
	return err == nil && os.SameFile(srcInfo, dstInfo)
}

package magic

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

func testLogger(t *testing.T) hclog.Logger {
	t.Helper()
	return hclog.New(&hclog.LoggerOptions{
		Name:   "patcher_test",
		Level:  hclog.Trace,
		Output: hclog.DefaultOutput,
	})
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func mustRequest(t *testing.T, path, tag, size, hash string) *Request {
	t.Helper()
	req, err := ParseRequest(path, tag, size, hash, DefaultEncoding)
	require.NoError(t, err)
	return req
}

func constFiller(b byte, n int) *bytes.Reader {
	return bytes.NewReader(bytes.Repeat([]byte{b}, n))
}

func TestPatch_EveryTagWritesSignatureAndRenames(t *testing.T) {
	original := []byte("HEADER!!the body of the file")

	for _, sig := range Signatures() {
		t.Run(sig.Tag, func(t *testing.T) {
			path := writeTemp(t, "sample.txt", original)

			res, err := NewPatcher(testLogger(t)).Patch(mustRequest(t, path, sig.Tag, "none", "none"))
			require.NoError(t, err)

			wantPath := strings.TrimSuffix(path, ".txt") + sig.Extension
			assert.Equal(t, wantPath, res.NewPath)
			assert.NoFileExists(t, path)

			got, err := os.ReadFile(res.NewPath)
			require.NoError(t, err)
			want := append(sig.Magic(), original[sig.Len():]...)
			assert.Equal(t, want, got)
			assert.Equal(t, int64(len(want)), res.Size)
			assert.Empty(t, res.Digest)
			assert.Zero(t, res.Padding)
		})
	}
}

func TestPatch_GIFExample(t *testing.T) {
	path := writeTemp(t, "greeting.txt", []byte("XXXXhello"))

	res, err := NewPatcher(testLogger(t)).Patch(mustRequest(t, path, "gif", "none", "none"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "greeting.gif"), res.NewPath)
	got, err := os.ReadFile(res.NewPath)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x47, 0x49, 0x46, 0x38, 0x68, 0x65, 0x6C, 0x6C, 0x6F}, got)
}

func TestPatch_BMPPaddedToOneKilobyte(t *testing.T) {
	path := writeTemp(t, "tiny.dat", []byte("??AB"))

	p := NewPatcher(testLogger(t), WithFiller(constFiller(0xAA, 2048)))
	res, err := p.Patch(mustRequest(t, path, "bmp", "1", "none"))
	require.NoError(t, err)

	got, err := os.ReadFile(res.NewPath)
	require.NoError(t, err)
	require.Len(t, got, 1024)
	assert.Equal(t, []byte{0x42, 0x4D, 0x41, 0x42}, got[:4])
	assert.Equal(t, bytes.Repeat([]byte{0xAA}, 1020), got[4:])
	assert.Equal(t, int64(1020), res.Padding)
	assert.Equal(t, int64(1024), res.Size)
}

func TestPatch_DefaultFillerPadsExactly(t *testing.T) {
	path := writeTemp(t, "tiny.dat", []byte("??AB"))

	res, err := NewPatcher(testLogger(t)).Patch(mustRequest(t, path, "bmp", "3", "none"))
	require.NoError(t, err)

	info, err := os.Stat(res.NewPath)
	require.NoError(t, err)
	assert.Equal(t, int64(3*1024), info.Size())
}

func TestPatch_TargetIsAFloor(t *testing.T) {
	original := bytes.Repeat([]byte("z"), 2000)
	path := writeTemp(t, "big.bin", original)

	res, err := NewPatcher(testLogger(t)).Patch(mustRequest(t, path, "pdf", "1", "none"))
	require.NoError(t, err)

	got, err := os.ReadFile(res.NewPath)
	require.NoError(t, err)
	assert.Len(t, got, 2000)
	assert.Zero(t, res.Padding)
}

func TestPatch_AppendsDigestOfContentOnly(t *testing.T) {
	original := []byte("\x00\x00\x00some content worth hashing")
	content := original[3:]

	md5Sum := md5.Sum(content)
	sha1Sum := sha1.Sum(content)
	sha256Sum := sha256.Sum256(content)
	sha512Sum := sha512.Sum512(content)
	sha3Sum256 := sha3.Sum256(content)
	sha3Sum512 := sha3.Sum512(content)
	blakeSum256 := blake2b.Sum256(content)
	blakeSum512 := blake2b.Sum512(content)

	cases := map[string][]byte{
		"md5":         md5Sum[:],
		"sha1":        sha1Sum[:],
		"sha256":      sha256Sum[:],
		"sha512":      sha512Sum[:],
		"sha3-256":    sha3Sum256[:],
		"sha3-512":    sha3Sum512[:],
		"blake2b-256": blakeSum256[:],
		"blake2b-512": blakeSum512[:],
	}

	for name, digest := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeTemp(t, "doc.txt", original)

			res, err := NewPatcher(testLogger(t)).Patch(mustRequest(t, path, "jpeg", "none", name))
			require.NoError(t, err)

			got, err := os.ReadFile(res.NewPath)
			require.NoError(t, err)

			want := []byte{0xFF, 0xD8, 0xFF}
			want = append(want, content...)
			want = append(want, digest...)
			assert.Equal(t, want, got)
			assert.Len(t, res.Digest, 2*len(digest))
		})
	}
}

func TestPatch_DigestThenPadding(t *testing.T) {
	original := []byte("PNGHEADRbody")
	path := writeTemp(t, "x.txt", original)

	p := NewPatcher(testLogger(t), WithFiller(constFiller(0x00, 4096)))
	res, err := p.Patch(mustRequest(t, path, "png", "2", "SHA256"))
	require.NoError(t, err)

	got, err := os.ReadFile(res.NewPath)
	require.NoError(t, err)
	require.Len(t, got, 2048)

	digest := sha256.Sum256([]byte("body"))
	unpadded := append(Signatures()[1].Magic(), "body"...)
	unpadded = append(unpadded, digest[:]...)
	assert.Equal(t, unpadded, got[:len(unpadded)])
	assert.Equal(t, int64(2048-len(unpadded)), res.Padding)
}

func TestPatch_FileShorterThanSignature(t *testing.T) {
	for name, original := range map[string][]byte{"empty": {}, "one byte": []byte("A")} {
		t.Run(name, func(t *testing.T) {
			path := writeTemp(t, "short", original)

			res, err := NewPatcher(testLogger(t)).Patch(mustRequest(t, path, "png", "none", "none"))
			require.NoError(t, err)
			assert.Equal(t, path+".png", res.NewPath)

			got, err := os.ReadFile(res.NewPath)
			require.NoError(t, err)
			assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, got)
			assert.Zero(t, res.ContentLen)
		})
	}
}

func TestPatch_FixedPointWithoutHashOrPadding(t *testing.T) {
	path := writeTemp(t, "photo.txt", []byte("....pixels"))
	p := NewPatcher(testLogger(t))

	first, err := p.Patch(mustRequest(t, path, "gif", "none", "none"))
	require.NoError(t, err)
	once, err := os.ReadFile(first.NewPath)
	require.NoError(t, err)

	second, err := p.Patch(mustRequest(t, first.NewPath, "gif", "none", "none"))
	require.NoError(t, err)
	assert.Equal(t, first.NewPath, second.NewPath)
	assert.Equal(t, "gif", second.PreviousTag)

	twice, err := os.ReadFile(second.NewPath)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestPatch_HashedPassIsNotIdempotent(t *testing.T) {
	path := writeTemp(t, "photo.txt", []byte("....pixels"))
	p := NewPatcher(testLogger(t))

	first, err := p.Patch(mustRequest(t, path, "gif", "none", "md5"))
	require.NoError(t, err)
	second, err := p.Patch(mustRequest(t, first.NewPath, "gif", "none", "md5"))
	require.NoError(t, err)

	assert.Equal(t, first.Size+int64(md5.Size), second.Size)
	assert.NotEqual(t, first.Digest, second.Digest)
}

func TestPatch_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.txt")

	_, err := NewPatcher(testLogger(t)).Patch(mustRequest(t, path, "pdf", "none", "none"))
	require.Error(t, err)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, OpOpen, ioErr.Op)
	assert.False(t, ioErr.Mutated())
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestPatch_RenameCollisionLeavesMutatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	dest := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("....contents"), 0o600))
	require.NoError(t, os.WriteFile(dest, []byte("keep me"), 0o600))

	res, err := NewPatcher(testLogger(t)).Patch(mustRequest(t, path, "pdf", "none", "none"))
	require.Error(t, err)
	require.NotNil(t, res)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, OpRename, ioErr.Op)
	assert.True(t, ioErr.Mutated())
	assert.ErrorIs(t, err, ErrDestinationExists)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDFcontents"), got)

	kept, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("keep me"), kept)
}

func TestPatch_FillerFailureLeavesFileUntouched(t *testing.T) {
	original := []byte("....data")

	fillers := map[string]func() io.Reader{
		"immediately": func() io.Reader {
			return iotest.ErrReader(errors.New("entropy exhausted"))
		},
		"midway": func() io.Reader {
			return io.MultiReader(constFiller(0xAA, 300), iotest.ErrReader(errors.New("entropy exhausted")))
		},
		"short": func() io.Reader {
			return constFiller(0xAA, 10)
		},
	}

	for name, filler := range fillers {
		t.Run(name, func(t *testing.T) {
			path := writeTemp(t, "f.txt", original)

			p := NewPatcher(testLogger(t), WithFiller(filler()))
			_, err := p.Patch(mustRequest(t, path, "gif", "1", "none"))
			require.Error(t, err)

			var ioErr *IOError
			require.True(t, errors.As(err, &ioErr))
			assert.Equal(t, OpPad, ioErr.Op)
			assert.False(t, ioErr.Mutated())
			assert.ErrorIs(t, err, ErrIO)

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, original, got)
			assert.NoFileExists(t, filepath.Join(filepath.Dir(path), "f.gif"))
		})
	}
}

func TestPatch_HugeTargetSizeFailsWithoutPanicking(t *testing.T) {
	original := []byte("....x")
	path := writeTemp(t, "f.txt", original)

	req := mustRequest(t, path, "gif", "9007199254740991", "none")
	assert.Equal(t, int64(math.MaxInt64/KB*KB), req.TargetSize)

	var err error
	require.NotPanics(t, func() {
		_, err = NewPatcher(testLogger(t)).Patch(req)
	})
	require.Error(t, err)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, OpPad, ioErr.Op)
	assert.False(t, ioErr.Mutated())
	assert.ErrorIs(t, err, ErrInsufficientSpace)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestAvailableSpace(t *testing.T) {
	avail, err := availableSpace(t.TempDir())
	if errors.Is(err, errors.ErrUnsupported) {
		t.Skip("disk space not reported on this platform")
	}
	require.NoError(t, err)
	assert.Positive(t, avail)
}

func TestRenameNoClobber(t *testing.T) {
	t.Run("case only rename of the same file", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "photo.GIF")
		dst := filepath.Join(dir, "photo.gif")
		require.NoError(t, os.WriteFile(src, []byte("GIF8"), 0o600))
		if err := os.Link(src, dst); err != nil {
			t.Skipf("hard links unavailable: %v", err)
		}

		require.NoError(t, renameNoClobber(src, dst))
		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, []byte("GIF8"), got)
	})

	t.Run("other name for the same file", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "photo.txt")
		dst := filepath.Join(dir, "photo.gif")
		require.NoError(t, os.WriteFile(src, []byte("GIF8"), 0o600))
		if err := os.Link(src, dst); err != nil {
			t.Skipf("hard links unavailable: %v", err)
		}

		assert.ErrorIs(t, renameNoClobber(src, dst), ErrDestinationExists)
		assert.FileExists(t, src)
	})

	t.Run("case only rename of a different file", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "photo.GIF")
		dst := filepath.Join(dir, "photo.gif")
		require.NoError(t, os.WriteFile(src, []byte("src"), 0o600))
		require.NoError(t, os.WriteFile(dst, []byte("dst"), 0o600))
		if got, _ := os.ReadFile(src); string(got) != "src" {
			t.Skip("filesystem is case-insensitive")
		}

		assert.ErrorIs(t, renameNoClobber(src, dst), ErrDestinationExists)
	})
}

func TestPatch_UnknownTypeNeverTouchesFile(t *testing.T) {
	original := []byte("....data")
	path := writeTemp(t, "f.txt", original)

	_, err := ParseRequest(path, "tiff", "none", "none", DefaultEncoding)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownType)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, got)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(path), "f.tiff"))
}

func TestPlan_ReportsWithoutWriting(t *testing.T) {
	original := []byte("plain text body for sniffing")
	path := writeTemp(t, "notes.txt", original)

	res, err := NewPatcher(testLogger(t)).Plan(mustRequest(t, path, "jpeg", "1", "sha1"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "notes.jpg"), res.NewPath)
	assert.True(t, strings.HasPrefix(res.OriginalMIME, "text/plain"), res.OriginalMIME)
	assert.Empty(t, res.PreviousTag)
	assert.Equal(t, 3, res.HeaderLen)
	assert.Equal(t, len(original)-3, res.ContentLen)
	assert.Equal(t, int64(1024), res.Size)
	assert.Equal(t, int64(1024-3-(len(original)-3)-sha1.Size), res.Padding)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestPlan_RequiresWriteAccess(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses file permissions")
	}
	path := writeTemp(t, "locked.txt", []byte("....data"))
	require.NoError(t, os.Chmod(path, 0o400))

	_, err := NewPatcher(testLogger(t)).Plan(mustRequest(t, path, "gif", "none", "none"))
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, OpOpen, ioErr.Op)
}

func TestPlan_MissingFile(t *testing.T) {
	_, err := NewPatcher(nil).Plan(&Request{Path: filepath.Join(t.TempDir(), "nope"), Signature: Signatures()[0]})
	assert.ErrorIs(t, err, ErrIO)
}

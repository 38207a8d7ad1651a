package transport

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFS is an in-memory remote filesystem standing in for an SFTP
// session.
type fakeFS struct {
	dirs  map[string]os.FileMode
	files map[string][]byte

	failRename bool
	failCreate bool
	failMkdir  bool
	failRemove bool

	closed bool
}

func newFakeFS() *fakeFS {
	return &fakeFS{
		dirs:  make(map[string]os.FileMode),
		files: make(map[string][]byte),
	}
}

type fakeFileInfo struct{ name string }

func (i fakeFileInfo) Name() string       { return i.name }
func (i fakeFileInfo) Size() int64        { return 0 }
func (i fakeFileInfo) Mode() fs.FileMode  { return 0 }
func (i fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (i fakeFileInfo) IsDir() bool        { return false }
func (i fakeFileInfo) Sys() any           { return nil }

func (f *fakeFS) Stat(p string) (os.FileInfo, error) {
	if _, ok := f.dirs[p]; ok {
		return fakeFileInfo{name: p}, nil
	}
	if _, ok := f.files[p]; ok {
		return fakeFileInfo{name: p}, nil
	}
	return nil, os.ErrNotExist
}

func (f *fakeFS) Mkdir(p string) error {
	if f.failMkdir {
		return fmt.Errorf("mkdir %s: permission denied", p)
	}
	f.dirs[p] = 0755
	return nil
}

func (f *fakeFS) Chmod(p string, mode os.FileMode) error {
	if _, ok := f.dirs[p]; !ok {
		return os.ErrNotExist
	}
	f.dirs[p] = mode
	return nil
}

type fakeWriter struct {
	fs   *fakeFS
	path string
	buf  bytes.Buffer
}

func (w *fakeWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *fakeWriter) Close() error {
	w.fs.files[w.path] = w.buf.Bytes()
	return nil
}

func (f *fakeFS) Create(p string) (io.WriteCloser, error) {
	if f.failCreate {
		return nil, fmt.Errorf("create %s: permission denied", p)
	}
	return &fakeWriter{fs: f, path: p}, nil
}

func (f *fakeFS) Open(p string) (io.ReadCloser, error) {
	data, ok := f.files[p]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeFS) Remove(p string) error {
	if f.failRemove {
		return fmt.Errorf("remove %s: permission denied", p)
	}
	if _, ok := f.files[p]; !ok {
		return os.ErrNotExist
	}
	delete(f.files, p)
	return nil
}

func (f *fakeFS) Rename(oldPath, newPath string) error {
	if f.failRename {
		return fmt.Errorf("rename %s: permission denied", oldPath)
	}
	data, ok := f.files[oldPath]
	if !ok {
		return os.ErrNotExist
	}
	delete(f.files, oldPath)
	f.files[newPath] = data
	return nil
}

func (f *fakeFS) Close() error {
	f.closed = true
	return nil
}

func testTransport(fs *fakeFS) *SftpTransport {
	return &SftpTransport{dial: func(sess Session) (remoteFS, error) { return fs, nil }}
}

var testSession = Session{Host: "peakinvestigator.veritomyx.com", Port: 22022, User: "V504", Password: "secret"}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scans.tar")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBootstrapCreatesLayout(t *testing.T) {
	fs := newFakeFS()
	out := testTransport(fs).Bootstrap(testSession, 504)
	require.True(t, out.OK, out.Message)

	for _, dir := range []string{"accounts/504", "accounts/504/batches", "accounts/504/results"} {
		mode, ok := fs.dirs[dir]
		require.True(t, ok, "missing %s", dir)
		assert.Equal(t, os.FileMode(0770), mode)
	}
	assert.True(t, fs.closed)
}

func TestBootstrapReentersExistingLayout(t *testing.T) {
	fs := newFakeFS()
	fs.dirs["accounts/504"] = 0770
	fs.dirs["accounts/504/batches"] = 0770

	out := testTransport(fs).Bootstrap(testSession, 504)
	require.True(t, out.OK, out.Message)

	// Only the missing piece is created; existing modes stay untouched.
	_, ok := fs.dirs["accounts/504/results"]
	assert.True(t, ok)
}

func TestBootstrapMkdirFailure(t *testing.T) {
	fs := newFakeFS()
	fs.failMkdir = true

	out := testTransport(fs).Bootstrap(testSession, 504)
	assert.False(t, out.OK)
	assert.Contains(t, out.Message, "cannot create remote directory")
}

func TestBootstrapDialFailure(t *testing.T) {
	tr := &SftpTransport{dial: func(sess Session) (remoteFS, error) {
		return nil, fmt.Errorf("connection refused")
	}}
	out := tr.Bootstrap(testSession, 504)
	assert.False(t, out.OK)
	assert.Contains(t, out.Message, "cannot connect")
}

func TestPutCommitsAtomically(t *testing.T) {
	fs := newFakeFS()
	local := writeTempFile(t, "scan data")

	out := testTransport(fs).Put(testSession, 504, local, "job-1.scans.tar")
	require.True(t, out.OK, out.Message)

	assert.Equal(t, []byte("scan data"), fs.files["accounts/504/batches/job-1.scans.tar"])
	_, partExists := fs.files["accounts/504/batches/job-1.scans.tar.filepart"]
	assert.False(t, partExists)
	assert.True(t, fs.closed)
}

func TestPutReplacesStaleArtifacts(t *testing.T) {
	fs := newFakeFS()
	fs.files["accounts/504/batches/job-1.scans.tar"] = []byte("old upload")
	fs.files["accounts/504/batches/job-1.scans.tar.filepart"] = []byte("interrupted upload")
	local := writeTempFile(t, "fresh data")

	out := testTransport(fs).Put(testSession, 504, local, "job-1.scans.tar")
	require.True(t, out.OK, out.Message)

	// Exactly one remote file remains and it holds the new content.
	assert.Len(t, fs.files, 1)
	assert.Equal(t, []byte("fresh data"), fs.files["accounts/504/batches/job-1.scans.tar"])
}

func TestPutFailedRenameLeavesFilepart(t *testing.T) {
	fs := newFakeFS()
	fs.failRename = true
	local := writeTempFile(t, "scan data")

	out := testTransport(fs).Put(testSession, 504, local, "job-1.scans.tar")
	assert.False(t, out.OK)
	assert.Contains(t, out.Message, "cannot rename file")

	// The interrupted transfer is visible as a .filepart, never as input.
	_, finalExists := fs.files["accounts/504/batches/job-1.scans.tar"]
	assert.False(t, finalExists)
	_, partExists := fs.files["accounts/504/batches/job-1.scans.tar.filepart"]
	assert.True(t, partExists)

	// A retry on the same fake (rename healed) converges to one file.
	fs.failRename = false
	out = testTransport(fs).Put(testSession, 504, local, "job-1.scans.tar")
	require.True(t, out.OK, out.Message)
	assert.Len(t, fs.files, 1)
}

func TestPutMissingLocalFile(t *testing.T) {
	fs := newFakeFS()
	out := testTransport(fs).Put(testSession, 504, "/nonexistent/scans.tar", "job-1.scans.tar")
	assert.False(t, out.OK)
	assert.Contains(t, out.Message, "cannot open local file")
}

func TestGetDownloadsAndPurges(t *testing.T) {
	fs := newFakeFS()
	fs.files["accounts/504/results/job-1.mass_list.tar"] = []byte("peak lists")
	localDir := t.TempDir()

	out := testTransport(fs).Get(testSession, 504, "job-1.mass_list.tar", localDir)
	require.True(t, out.OK, out.Message)

	data, err := os.ReadFile(filepath.Join(localDir, "job-1.mass_list.tar"))
	require.NoError(t, err)
	assert.Equal(t, []byte("peak lists"), data)

	_, remoteExists := fs.files["accounts/504/results/job-1.mass_list.tar"]
	assert.False(t, remoteExists)
}

func TestGetPurgeFailureStillSucceeds(t *testing.T) {
	fs := newFakeFS()
	fs.files["accounts/504/results/job-1.mass_list.tar"] = []byte("peak lists")
	fs.failRemove = true
	localDir := t.TempDir()

	out := testTransport(fs).Get(testSession, 504, "job-1.mass_list.tar", localDir)
	assert.True(t, out.OK, out.Message)

	data, err := os.ReadFile(filepath.Join(localDir, "job-1.mass_list.tar"))
	require.NoError(t, err)
	assert.Equal(t, []byte("peak lists"), data)
}

func TestGetMissingRemoteFile(t *testing.T) {
	fs := newFakeFS()
	out := testTransport(fs).Get(testSession, 504, "job-1.mass_list.tar", t.TempDir())
	assert.False(t, out.OK)
	assert.Contains(t, out.Message, "cannot read file")
}

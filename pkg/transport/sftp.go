package transport

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

const (
	batchesDir = "batches"
	resultsDir = "results"

	// filepartSuffix marks an upload that has not been committed yet.
	// Only a completed remove-upload-rename chain counts as a successful
	// put, so an interrupted transfer can never be mistaken for input.
	filepartSuffix = ".filepart"

	remoteDirMode = os.FileMode(0770)
	dialTimeout   = 30 * time.Second
)

// Session holds the ephemeral credentials the SFTP action returned. It is
// consumed by exactly one operation and never persisted.
type Session struct {
	Host      string
	Port      int
	User      string
	Password  string
	Directory string
}

// TransferOutcome reports a bulk-channel operation. Failures are
// represented, never raised: no SFTP trouble crosses this boundary as a
// panic or an error value.
type TransferOutcome struct {
	OK      bool
	Message string
}

func success() TransferOutcome {
	return TransferOutcome{OK: true}
}

func failure(format string, args ...any) TransferOutcome {
	return TransferOutcome{Message: fmt.Sprintf(format, args...)}
}

// remoteFS is the slice of SFTP the transport needs. *sftp.Client
// satisfies it through sftpConn; tests substitute an in-memory fake.
type remoteFS interface {
	Stat(p string) (os.FileInfo, error)
	Mkdir(p string) error
	Chmod(p string, mode os.FileMode) error
	Create(p string) (io.WriteCloser, error)
	Open(p string) (io.ReadCloser, error)
	Remove(p string) error
	Rename(oldPath, newPath string) error
	Close() error
}

type dialFunc func(sess Session) (remoteFS, error)

// sftpConn adapts *sftp.Client to remoteFS and closes the underlying SSH
// connection together with the SFTP client.
type sftpConn struct {
	client *sftp.Client
	conn   *ssh.Client
}

func (c *sftpConn) Stat(p string) (os.FileInfo, error) { return c.client.Stat(p) }

func (c *sftpConn) Mkdir(p string) error { return c.client.Mkdir(p) }

func (c *sftpConn) Chmod(p string, mode os.FileMode) error { return c.client.Chmod(p, mode) }

func (c *sftpConn) Create(p string) (io.WriteCloser, error) { return c.client.Create(p) }

func (c *sftpConn) Open(p string) (io.ReadCloser, error) { return c.client.Open(p) }

func (c *sftpConn) Remove(p string) error { return c.client.Remove(p) }

func (c *sftpConn) Rename(oldPath, newPath string) error { return c.client.Rename(oldPath, newPath) }

func (c *sftpConn) Close() error {
	err := c.client.Close()
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

// dialSftp opens a password-authenticated session. The server's host key
// is not pinned by this client (the service hands out ephemeral transfer
// accounts); this is a known trust-model limitation.
func dialSftp(sess Session) (remoteFS, error) {
	cfg := &ssh.ClientConfig{
		User:            sess.User,
		Auth:            []ssh.AuthMethod{ssh.Password(sess.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	}
	addr := fmt.Sprintf("%s:%d", sess.Host, sess.Port)
	conn, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, err
	}
	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &sftpConn{client: client, conn: conn}, nil
}

// SftpTransport performs bulk-channel operations. Every operation is a
// self-contained open-session/act/close-session unit; sessions are never
// shared or reused across calls.
type SftpTransport struct {
	dial dialFunc
}

// NewSftpTransport creates the production transport.
func NewSftpTransport() *SftpTransport {
	return &SftpTransport{dial: dialSftp}
}

func accountDir(accountID int) string {
	return path.Join("accounts", fmt.Sprintf("%d", accountID))
}

// Bootstrap verifies the session is reachable and that the remote account
// layout accounts/<aid>/{batches,results} exists, creating any missing
// pieces with mode 0770. Partially created layouts are not rolled back on
// failure; every step is stat-then-create, so a later attempt re-enters
// the same path.
func (t *SftpTransport) Bootstrap(sess Session, accountID int) TransferOutcome {
	fs, err := t.dial(sess)
	if err != nil {
		slog.Error("sftp_connect_failed", "host", sess.Host, "user", sess.User, "error", err)
		return failure("cannot connect to SFTP server %s@%s", sess.User, sess.Host)
	}
	defer fs.Close()

	dir := accountDir(accountID)
	for _, d := range []string{dir, path.Join(dir, batchesDir), path.Join(dir, resultsDir)} {
		if _, err := fs.Stat(d); err == nil {
			continue
		}
		if err := fs.Mkdir(d); err != nil {
			slog.Error("sftp_mkdir_failed", "dir", d, "error", err)
			return failure("cannot create remote directory, %s", d)
		}
		if err := fs.Chmod(d, remoteDirMode); err != nil {
			slog.Error("sftp_chmod_failed", "dir", d, "error", err)
			return failure("cannot set permissions on remote directory, %s", d)
		}
	}

	slog.Info("sftp_bootstrap_complete", "dir", dir)
	return success()
}

// Put uploads localPath into the account's batches directory under
// remoteName. Stale copies of the target and of a previous interrupted
// transfer are removed first (best effort), the data lands under a
// .filepart name, and only a successful rename commits it. A failed
// rename leaves the .filepart behind for the next attempt's cleanup.
func (t *SftpTransport) Put(sess Session, accountID int, localPath, remoteName string) TransferOutcome {
	fs, err := t.dial(sess)
	if err != nil {
		slog.Error("sftp_connect_failed", "host", sess.Host, "user", sess.User, "error", err)
		return failure("cannot connect to SFTP server %s@%s", sess.User, sess.Host)
	}
	defer fs.Close()

	local, err := os.Open(localPath)
	if err != nil {
		slog.Error("sftp_local_open_failed", "path", localPath, "error", err)
		return failure("cannot open local file: %s", localPath)
	}
	defer local.Close()

	final := path.Join(accountDir(accountID), batchesDir, remoteName)
	part := final + filepartSuffix

	// Best-effort cleanup of earlier attempts.
	_ = fs.Remove(final)
	_ = fs.Remove(part)

	slog.Info("sftp_put_start", "local", localPath, "remote", final)

	dst, err := fs.Create(part)
	if err != nil {
		slog.Error("sftp_create_failed", "remote", part, "error", err)
		return failure("cannot write file: %s", remoteName)
	}
	if _, err := io.Copy(dst, local); err != nil {
		dst.Close()
		slog.Error("sftp_upload_failed", "remote", part, "error", err)
		return failure("cannot write file: %s", remoteName)
	}
	if err := dst.Close(); err != nil {
		slog.Error("sftp_close_failed", "remote", part, "error", err)
		return failure("cannot write file: %s", remoteName)
	}

	if err := fs.Rename(part, final); err != nil {
		slog.Error("sftp_rename_failed", "from", part, "to", final, "error", err)
		return failure("cannot rename file: %s", remoteName)
	}

	slog.Info("sftp_put_complete", "remote", final)
	return success()
}

// Get downloads remoteName from the account's results directory into
// localDir and then removes the remote copy. A removal failure after a
// successful download is logged and ignored, matching the service's
// intended single-fetch flow; the duplicate-download risk is accepted.
func (t *SftpTransport) Get(sess Session, accountID int, remoteName, localDir string) TransferOutcome {
	fs, err := t.dial(sess)
	if err != nil {
		slog.Error("sftp_connect_failed", "host", sess.Host, "user", sess.User, "error", err)
		return failure("cannot connect to SFTP server %s@%s", sess.User, sess.Host)
	}
	defer fs.Close()

	remote := path.Join(accountDir(accountID), resultsDir, remoteName)
	localPath := filepath.Join(localDir, path.Base(remoteName))

	slog.Info("sftp_get_start", "remote", remote, "local", localPath)

	src, err := fs.Open(remote)
	if err != nil {
		slog.Error("sftp_open_failed", "remote", remote, "error", err)
		return failure("cannot read file: %s", remoteName)
	}
	defer src.Close()

	local, err := os.Create(localPath)
	if err != nil {
		slog.Error("sftp_local_create_failed", "path", localPath, "error", err)
		return failure("cannot write local file: %s", localPath)
	}
	if _, err := io.Copy(local, src); err != nil {
		local.Close()
		os.Remove(localPath)
		slog.Error("sftp_download_failed", "remote", remote, "error", err)
		return failure("cannot read file: %s", remoteName)
	}
	if err := local.Close(); err != nil {
		slog.Error("sftp_local_close_failed", "path", localPath, "error", err)
		return failure("cannot write local file: %s", localPath)
	}

	if err := fs.Remove(remote); err != nil {
		slog.Warn("sftp_purge_failed", "remote", remote, "error", err)
	}

	slog.Info("sftp_get_complete", "local", localPath)
	return success()
}

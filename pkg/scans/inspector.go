// Package scans inspects local scan archives before upload. The archive
// is the tar of per-scan data files handed to the bulk channel; its
// member count is the client-side scan count checked against the server's
// PREP report.
package scans

import (
	"archive/tar"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/veritomyx/peakinvestigator-go/pkg/errors"
)

// Inspector validates and summarizes scan archives.
type Inspector struct {
	maxArchiveSize int64
}

// NewInspector creates an inspector. maxArchiveSize of zero disables the
// size cap.
func NewInspector(maxArchiveSize int64) *Inspector {
	slog.Info("scan_inspector_init", "max_archive_size_mb", maxArchiveSize/1024/1024)
	return &Inspector{maxArchiveSize: maxArchiveSize}
}

// ArchiveInfo summarizes one scan archive.
type ArchiveInfo struct {
	Path      string
	Size      int64
	ScanCount int
}

// Inspect walks the tar archive at path, counting scan members and
// enforcing the size cap. Directory members and hidden files are not
// scans and are not counted.
func (i *Inspector) Inspect(path string) (*ArchiveInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot stat archive")
	}
	if i.maxArchiveSize > 0 && stat.Size() > i.maxArchiveSize {
		return nil, fmt.Errorf("archive %s exceeds size limit: %d > %d bytes", path, stat.Size(), i.maxArchiveSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open archive")
	}
	defer f.Close()

	count := 0
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "archive is not a valid tar")
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if strings.HasPrefix(baseName(hdr.Name), ".") {
			continue
		}
		count++
	}

	slog.Info("scan_archive_inspected", "path", path, "size", stat.Size(), "scan_count", count)
	return &ArchiveInfo{Path: path, Size: stat.Size(), ScanCount: count}, nil
}

func baseName(name string) string {
	name = strings.TrimSuffix(name, "/")
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

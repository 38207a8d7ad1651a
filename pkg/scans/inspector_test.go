package scans

import (
	"archive/tar"
	"os"
	"path/filepath"
	"testing"
)

func writeArchive(t *testing.T, members map[string]string, dirs []string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scans.tar")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer f.Close()

	tw := tar.NewWriter(f)
	for _, dir := range dirs {
		hdr := &tar.Header{Name: dir, Typeflag: tar.TypeDir, Mode: 0755}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write dir header: %v", err)
		}
	}
	for name, content := range members {
		hdr := &tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write member: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
	return path
}

func TestInspectCountsScans(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"scan_0001.txt": "mz intensity",
		"scan_0002.txt": "mz intensity",
		"scan_0003.txt": "mz intensity",
	}, nil)

	info, err := NewInspector(0).Inspect(path)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if info.ScanCount != 3 {
		t.Errorf("expected 3 scans, got %d", info.ScanCount)
	}
	if info.Path != path {
		t.Errorf("expected path %s, got %s", path, info.Path)
	}
	if info.Size == 0 {
		t.Error("expected non-zero archive size")
	}
}

func TestInspectSkipsDirectoriesAndHiddenFiles(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"scans/scan_0001.txt": "mz intensity",
		"scans/.DS_Store":     "junk",
		"scans/._scan_0001":   "resource fork",
	}, []string{"scans/"})

	info, err := NewInspector(0).Inspect(path)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if info.ScanCount != 1 {
		t.Errorf("expected 1 scan, got %d", info.ScanCount)
	}
}

func TestInspectEnforcesSizeCap(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"scan_0001.txt": "a lot of mass spectrometry data",
	}, nil)

	_, err := NewInspector(16).Inspect(path)
	if err == nil {
		t.Error("expected size limit error")
	}
}

func TestInspectRejectsNonTar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.tar")
	if err := os.WriteFile(path, []byte("this is not a tar archive, promise"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := NewInspector(0).Inspect(path); err == nil {
		t.Error("expected tar parse error")
	}
}

func TestInspectMissingFile(t *testing.T) {
	if _, err := NewInspector(0).Inspect("/nonexistent/scans.tar"); err == nil {
		t.Error("expected stat error")
	}
}

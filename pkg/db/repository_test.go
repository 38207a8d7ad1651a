package db

import (
	"os"
	"testing"
)

func TestRepository_CreateAndGet(t *testing.T) {
	dbPath := "/tmp/test_jobs.db"
	os.Remove(dbPath)
	defer os.Remove(dbPath)

	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	rec := &Record{
		JobID:     "V-504.1461",
		ProjectID: 504,
		Status:    "initialized",
		ScanCount: 5,
		Funds:     115.01,
	}

	if err := repo.Create(rec); err != nil {
		t.Fatalf("failed to create record: %v", err)
	}
	if rec.ID == 0 {
		t.Error("expected record id to be set after create")
	}

	retrieved, err := repo.GetByJobID("V-504.1461")
	if err != nil {
		t.Fatalf("failed to get record: %v", err)
	}
	if retrieved == nil {
		t.Fatal("expected record, got nil")
	}

	if retrieved.JobID != rec.JobID || retrieved.ProjectID != rec.ProjectID || retrieved.Funds != rec.Funds {
		t.Errorf("retrieved record mismatch: got %+v, want %+v", retrieved, rec)
	}
}

func TestRepository_GetMissing(t *testing.T) {
	dbPath := "/tmp/test_jobs2.db"
	os.Remove(dbPath)
	defer os.Remove(dbPath)

	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	rec, err := repo.GetByJobID("P-0.0")
	if err != nil {
		t.Fatalf("unexpected error for missing record: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil for missing record, got %+v", rec)
	}
}

func TestRepository_UpdateStatus(t *testing.T) {
	dbPath := "/tmp/test_jobs3.db"
	os.Remove(dbPath)
	defer os.Remove(dbPath)

	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	rec := &Record{JobID: "V-504.1461", ProjectID: 504, Status: "initialized"}
	repo.Create(rec)

	if err := repo.UpdateStatus(rec.ID, "failed", "connection refused"); err != nil {
		t.Fatalf("failed to update status: %v", err)
	}

	updated, _ := repo.GetByJobID("V-504.1461")
	if updated.Status != "failed" {
		t.Errorf("status not updated: got %s, want failed", updated.Status)
	}
	if updated.ErrorMessage != "connection refused" {
		t.Errorf("error message not updated: got %q", updated.ErrorMessage)
	}
}

func TestRepository_Update(t *testing.T) {
	dbPath := "/tmp/test_jobs4.db"
	os.Remove(dbPath)
	defer os.Remove(dbPath)

	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	rec := &Record{JobID: "P-504.5148", ProjectID: 504, Status: "running", Tier: "RTO-24"}
	repo.Create(rec)

	rec.Status = "done"
	rec.ActualCost = 0.36
	rec.ResultsFile = "/files/P-504.5148/P-504.5148.mass_list.tar"
	if err := repo.Update(rec); err != nil {
		t.Fatalf("failed to update record: %v", err)
	}

	updated, _ := repo.GetByJobID("P-504.5148")
	if updated.Status != "done" || updated.ActualCost != 0.36 {
		t.Errorf("record not updated: got %+v", updated)
	}
	if updated.ResultsFile != rec.ResultsFile {
		t.Errorf("results file not updated: got %q", updated.ResultsFile)
	}
}

func TestRepository_UpdateRebindsJobID(t *testing.T) {
	dbPath := "/tmp/test_jobs9.db"
	os.Remove(dbPath)
	defer os.Remove(dbPath)

	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	rec := &Record{JobID: "V-504.1461", ProjectID: 504, Status: "prepped"}
	repo.Create(rec)

	// RUN replaces the server-assigned id; the same record must be
	// reachable under the new one.
	rec.JobID = "P-504.1463"
	rec.Status = "running"
	if err := repo.Update(rec); err != nil {
		t.Fatalf("failed to update record: %v", err)
	}

	rebound, _ := repo.GetByJobID("P-504.1463")
	if rebound == nil {
		t.Fatal("expected record under the new job id, got nil")
	}
	if rebound.ID != rec.ID || rebound.Status != "running" {
		t.Errorf("rebound record mismatch: got %+v", rebound)
	}

	stale, _ := repo.GetByJobID("V-504.1461")
	if stale != nil {
		t.Errorf("expected no record under the old job id, got %+v", stale)
	}
}

func TestRepository_UpdateMissing(t *testing.T) {
	dbPath := "/tmp/test_jobs5.db"
	os.Remove(dbPath)
	defer os.Remove(dbPath)

	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	rec := &Record{ID: 9999, JobID: "P-0.0", Status: "done"}
	if err := repo.Update(rec); err == nil {
		t.Error("expected error updating missing record")
	}
}

func TestRepository_List(t *testing.T) {
	dbPath := "/tmp/test_jobs6.db"
	os.Remove(dbPath)
	defer os.Remove(dbPath)

	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	repo.Create(&Record{JobID: "P-504.1", ProjectID: 504, Status: "running"})
	repo.Create(&Record{JobID: "P-504.2", ProjectID: 504, Status: "done"})

	records, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}

	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}

func TestRepository_Delete(t *testing.T) {
	dbPath := "/tmp/test_jobs7.db"
	os.Remove(dbPath)
	defer os.Remove(dbPath)

	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	rec := &Record{JobID: "P-504.1", ProjectID: 504, Status: "deleted"}
	repo.Create(rec)

	if err := repo.Delete(rec.ID); err != nil {
		t.Fatalf("failed to delete record: %v", err)
	}

	gone, _ := repo.GetByJobID("P-504.1")
	if gone != nil {
		t.Errorf("expected record to be gone, got %+v", gone)
	}
}

func TestRepository_DuplicateJobID(t *testing.T) {
	dbPath := "/tmp/test_jobs8.db"
	os.Remove(dbPath)
	defer os.Remove(dbPath)

	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	repo.Create(&Record{JobID: "P-504.1", ProjectID: 504, Status: "running"})
	if err := repo.Create(&Record{JobID: "P-504.1", ProjectID: 504, Status: "running"}); err == nil {
		t.Error("expected unique constraint violation for duplicate job id")
	}
}

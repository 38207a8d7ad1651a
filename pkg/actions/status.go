package actions

import (
	"fmt"
	"strings"
	"time"
)

// StatusRequest polls a job's processing state.
type StatusRequest struct {
	JobID string
}

func (r StatusRequest) Action() string { return NameStatus }

func (r StatusRequest) Query(creds Credentials) string {
	var b strings.Builder
	b.WriteString(prefix(creds, NameStatus))
	param(&b, "Job", r.JobID)
	return b.String()
}

// JobStatus is the processing state reported in STATUS replies.
type JobStatus string

const (
	StatusPreparing JobStatus = "Preparing"
	StatusRunning   JobStatus = "Running"
	StatusDone      JobStatus = "Done"
	StatusDeleted   JobStatus = "Deleted"
)

// StatusResponse is the success reply to STATUS. The completion fields
// (ScansInput through ResultsFile) are populated only when Status is Done.
type StatusResponse struct {
	Job           string
	Status        JobStatus
	Datetime      time.Time
	ScansInput    int
	ScansComplete int
	ActualCost    float64
	LogFile       string
	ResultsFile   string
}

type wireStatus struct {
	Job           string  `json:"Job"`
	Status        string  `json:"Status"`
	Datetime      string  `json:"Datetime"`
	ScansInput    int     `json:"ScansInput"`
	ScansComplete int     `json:"ScansComplete"`
	ActualCost    float64 `json:"ActualCost"`
	JobLogFile    string  `json:"JobLogFile"`
	ResultsFile   string  `json:"ResultsFile"`
}

// DecodeStatus parses a STATUS reply.
func DecodeStatus(body []byte) (*StatusResponse, error) {
	var w wireStatus
	if err := decodeInto(NameStatus, body, &w); err != nil {
		return nil, err
	}
	if w.Job == "" {
		return nil, missingField(NameStatus, "Job")
	}
	switch JobStatus(w.Status) {
	case StatusPreparing, StatusRunning, StatusDone, StatusDeleted:
	case "":
		return nil, missingField(NameStatus, "Status")
	default:
		return nil, &FormatError{Action: NameStatus, Reason: fmt.Sprintf("unknown Status %q", w.Status)}
	}
	when, err := parseDatetime(NameStatus, w.Datetime)
	if err != nil {
		return nil, err
	}
	resp := &StatusResponse{
		Job:      w.Job,
		Status:   JobStatus(w.Status),
		Datetime: when,
	}
	if resp.Status == StatusDone {
		resp.ScansInput = w.ScansInput
		resp.ScansComplete = w.ScansComplete
		resp.ActualCost = w.ActualCost
		resp.LogFile = w.JobLogFile
		resp.ResultsFile = w.ResultsFile
	}
	return resp, nil
}

// DeleteRequest removes a job and its remote artifacts.
type DeleteRequest struct {
	JobID string
}

func (r DeleteRequest) Action() string { return NameDelete }

func (r DeleteRequest) Query(creds Credentials) string {
	var b strings.Builder
	b.WriteString(prefix(creds, NameDelete))
	param(&b, "Job", r.JobID)
	return b.String()
}

// DeleteResponse is the success reply to DELETE.
type DeleteResponse struct {
	Job      string
	Datetime time.Time
}

type wireDelete struct {
	Job      string `json:"Job"`
	Datetime string `json:"Datetime"`
}

// DecodeDelete parses a DELETE reply.
func DecodeDelete(body []byte) (*DeleteResponse, error) {
	var w wireDelete
	if err := decodeInto(NameDelete, body, &w); err != nil {
		return nil, err
	}
	if w.Job == "" {
		return nil, missingField(NameDelete, "Job")
	}
	when, err := parseDatetime(NameDelete, w.Datetime)
	if err != nil {
		return nil, err
	}
	return &DeleteResponse{Job: w.Job, Datetime: when}, nil
}

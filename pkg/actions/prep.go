package actions

import (
	"fmt"
	"strings"
)

// PrepRequest hands the uploaded data archive off to the server for
// analysis.
type PrepRequest struct {
	JobID string
	File  string
}

func (r PrepRequest) Action() string { return NamePrep }

func (r PrepRequest) Query(creds Credentials) string {
	var b strings.Builder
	b.WriteString(prefix(creds, NamePrep))
	param(&b, "ID", r.JobID)
	param(&b, "File", r.File)
	return b.String()
}

// PrepStatus is the analysis state the server reports for an uploaded
// archive.
type PrepStatus string

const (
	PrepAnalyzing PrepStatus = "Analyzing"
	PrepReady     PrepStatus = "Ready"
)

// PrepResponse is the success reply to PREP. Analyzing replies carry the
// completion percentage; Ready replies carry the server-side scan count
// and detected instrument type.
type PrepResponse struct {
	Status          PrepStatus
	PercentComplete string
	ScanCount       int
	MSType          string
}

type wirePrep struct {
	Status          string `json:"Status"`
	PercentComplete string `json:"PercentComplete"`
	ScanCount       int    `json:"ScanCount"`
	MSType          string `json:"MSType"`
}

// DecodePrep parses a PREP reply.
func DecodePrep(body []byte) (*PrepResponse, error) {
	var w wirePrep
	if err := decodeInto(NamePrep, body, &w); err != nil {
		return nil, err
	}
	switch PrepStatus(w.Status) {
	case PrepAnalyzing, PrepReady:
	case "":
		return nil, missingField(NamePrep, "Status")
	default:
		return nil, &FormatError{Action: NamePrep, Reason: fmt.Sprintf("unknown Status %q", w.Status)}
	}
	return &PrepResponse{
		Status:          PrepStatus(w.Status),
		PercentComplete: w.PercentComplete,
		ScanCount:       w.ScanCount,
		MSType:          w.MSType,
	}, nil
}

package actions

import "strings"

// RunRequest starts processing of an uploaded archive under the selected
// response-time tier.
type RunRequest struct {
	JobID     string
	RTO       string
	InputFile string
}

func (r RunRequest) Action() string { return NameRun }

func (r RunRequest) Query(creds Credentials) string {
	var b strings.Builder
	b.WriteString(prefix(creds, NameRun))
	param(&b, "Job", r.JobID)
	param(&b, "RTO", r.RTO)
	param(&b, "InputFile", r.InputFile)
	return b.String()
}

// RunResponse is the success reply to RUN.
type RunResponse struct {
	Job string
}

type wireRun struct {
	Job string `json:"Job"`
}

// DecodeRun parses a RUN reply.
func DecodeRun(body []byte) (*RunResponse, error) {
	var w wireRun
	if err := decodeInto(NameRun, body, &w); err != nil {
		return nil, err
	}
	if w.Job == "" {
		return nil, missingField(NameRun, "Job")
	}
	return &RunResponse{Job: w.Job}, nil
}

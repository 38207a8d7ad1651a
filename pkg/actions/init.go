package actions

import "strings"

// InitRequest opens a new job. The server answers with the assigned job
// id, the account funds, and the estimated cost per instrument and
// response-time tier.
type InitRequest struct {
	ProjectID        int
	PIVersion        string
	ScanCount        int
	MaxPoints        int
	MinMass          int
	MaxMass          int
	CalibrationCount int
}

func (r InitRequest) Action() string { return NameInit }

func (r InitRequest) Query(creds Credentials) string {
	var b strings.Builder
	b.WriteString(prefix(creds, NameInit))
	intParam(&b, "ID", r.ProjectID)
	param(&b, "PI_Version", r.PIVersion)
	intParam(&b, "ScanCount", r.ScanCount)
	intParam(&b, "MaxPoints", r.MaxPoints)
	intParam(&b, "MinMass", r.MinMass)
	intParam(&b, "MaxMass", r.MaxMass)
	intParam(&b, "CalibrationCount", r.CalibrationCount)
	return b.String()
}

// PickupRequest re-attaches to an existing job by id instead of creating
// a new one. Pickup jobs carry no additional scan cost.
type PickupRequest struct {
	JobID string
}

func (r PickupRequest) Action() string { return NameInit }

func (r PickupRequest) Query(creds Credentials) string {
	var b strings.Builder
	b.WriteString(prefix(creds, NameInit))
	param(&b, "ID", r.JobID)
	return b.String()
}

// ResponseTimeCosts maps a response-time tier label (e.g. "RTO-24") to
// its decimal cost for one instrument type.
type ResponseTimeCosts map[string]float64

// Cost returns the cost of the given tier, or zero when the tier is not
// offered for this instrument.
func (c ResponseTimeCosts) Cost(tier string) float64 {
	return c[tier]
}

// Tiers lists the tier labels offered for this instrument.
func (c ResponseTimeCosts) Tiers() []string {
	tiers := make([]string, 0, len(c))
	for tier := range c {
		tiers = append(tiers, tier)
	}
	return tiers
}

// InitResponse is the success reply to INIT.
type InitResponse struct {
	Job            string
	ProjectID      int
	Funds          float64
	EstimatedCosts map[string]ResponseTimeCosts
}

type wireCostEntry struct {
	Instrument string  `json:"Instrument"`
	RTO        string  `json:"RTO"`
	Cost       float64 `json:"Cost"`
}

type wireInit struct {
	Job           string          `json:"Job"`
	ProjectID     *int            `json:"ID"`
	Funds         *float64        `json:"Funds"`
	EstimatedCost []wireCostEntry `json:"EstimatedCost"`
}

// DecodeInit parses an INIT reply.
func DecodeInit(body []byte) (*InitResponse, error) {
	var w wireInit
	if err := decodeInto(NameInit, body, &w); err != nil {
		return nil, err
	}
	if w.Job == "" {
		return nil, missingField(NameInit, "Job")
	}
	if w.Funds == nil {
		return nil, missingField(NameInit, "Funds")
	}
	resp := &InitResponse{
		Job:            w.Job,
		Funds:          *w.Funds,
		EstimatedCosts: make(map[string]ResponseTimeCosts, len(w.EstimatedCost)),
	}
	if w.ProjectID != nil {
		resp.ProjectID = *w.ProjectID
	}
	for _, entry := range w.EstimatedCost {
		costs, ok := resp.EstimatedCosts[entry.Instrument]
		if !ok {
			costs = make(ResponseTimeCosts)
			resp.EstimatedCosts[entry.Instrument] = costs
		}
		costs[entry.RTO] = entry.Cost
	}
	return resp, nil
}

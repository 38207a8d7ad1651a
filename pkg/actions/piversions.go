package actions

// PiVersionsRequest asks which algorithm versions the account may select.
type PiVersionsRequest struct{}

func (r PiVersionsRequest) Action() string { return NamePiVersions }

func (r PiVersionsRequest) Query(creds Credentials) string {
	return prefix(creds, NamePiVersions)
}

// PiVersionsResponse is the success reply to PI_VERSIONS.
type PiVersionsResponse struct {
	Current  string
	LastUsed string
	Versions []string
}

type wirePiVersions struct {
	Current  string   `json:"Current"`
	LastUsed string   `json:"LastUsed"`
	Count    int      `json:"Count"`
	Versions []string `json:"Versions"`
}

// DecodePiVersions parses a PI_VERSIONS reply.
func DecodePiVersions(body []byte) (*PiVersionsResponse, error) {
	var w wirePiVersions
	if err := decodeInto(NamePiVersions, body, &w); err != nil {
		return nil, err
	}
	if w.Current == "" {
		return nil, missingField(NamePiVersions, "Current")
	}
	if w.Versions == nil {
		return nil, missingField(NamePiVersions, "Versions")
	}
	return &PiVersionsResponse{
		Current:  w.Current,
		LastUsed: w.LastUsed,
		Versions: w.Versions,
	}, nil
}

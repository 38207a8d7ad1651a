package actions

import "strings"

// SftpRequest asks the server for the bulk data channel credentials of a
// project.
type SftpRequest struct {
	ProjectID int
}

func (r SftpRequest) Action() string { return NameSftp }

func (r SftpRequest) Query(creds Credentials) string {
	var b strings.Builder
	b.WriteString(prefix(creds, NameSftp))
	intParam(&b, "ID", r.ProjectID)
	return b.String()
}

// SftpResponse is the success reply to SFTP: everything needed to open a
// transfer session.
type SftpResponse struct {
	Host      string
	Port      int
	Directory string
	Login     string
	Password  string
}

type wireSftp struct {
	Host      string `json:"Host"`
	Port      *int   `json:"Port"`
	Directory string `json:"Directory"`
	Login     string `json:"Login"`
	Password  string `json:"Password"`
}

// DecodeSftp parses an SFTP reply.
func DecodeSftp(body []byte) (*SftpResponse, error) {
	var w wireSftp
	if err := decodeInto(NameSftp, body, &w); err != nil {
		return nil, err
	}
	if w.Host == "" {
		return nil, missingField(NameSftp, "Host")
	}
	if w.Port == nil {
		return nil, missingField(NameSftp, "Port")
	}
	if w.Login == "" {
		return nil, missingField(NameSftp, "Login")
	}
	return &SftpResponse{
		Host:      w.Host,
		Port:      *w.Port,
		Directory: w.Directory,
		Login:     w.Login,
		Password:  w.Password,
	}, nil
}

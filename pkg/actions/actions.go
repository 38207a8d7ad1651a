// Package actions implements the request/response codec for the
// PeakInvestigator control plane. Each action variant knows how to build
// its fixed-order form-encoded query and how to decode the service's JSON
// reply into a typed response. Decoding is two-phase by construction: a
// response value only exists after Decode succeeds, so there is no way to
// read a field of a reply that has not arrived.
package actions

import (
	"net/url"
	"strconv"
	"strings"
)

// Action names as they appear in the Action query parameter and in the
// Action field of JSON replies.
const (
	NameInit       = "INIT"
	NameSftp       = "SFTP"
	NamePrep       = "PREP"
	NameRun        = "RUN"
	NameStatus     = "STATUS"
	NameDelete     = "DELETE"
	NamePiVersions = "PI_VERSIONS"
)

// Credentials identify the account on every control-plane call. Version is
// the API version this client speaks, not the algorithm version.
type Credentials struct {
	Version string
	User    string
	Code    string
}

// Request is the closed set of control-plane requests. Query returns the
// complete form-encoded body for the request; parameter order is fixed per
// variant and never depends on map iteration.
type Request interface {
	Action() string
	Query(creds Credentials) string
}

// prefix builds the leading parameters shared by every action:
// Version=<v>&User=<u>&Code=<c>&Action=<NAME>.
func prefix(creds Credentials, action string) string {
	var b strings.Builder
	b.WriteString("Version=")
	b.WriteString(creds.Version)
	b.WriteString("&User=")
	b.WriteString(url.QueryEscape(creds.User))
	b.WriteString("&Code=")
	b.WriteString(url.QueryEscape(creds.Code))
	b.WriteString("&Action=")
	b.WriteString(action)
	return b.String()
}

// param appends &key=value with the value URL-escaped.
func param(b *strings.Builder, key, value string) {
	b.WriteByte('&')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(value))
}

func intParam(b *strings.Builder, key string, value int) {
	b.WriteByte('&')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(strconv.Itoa(value))
}

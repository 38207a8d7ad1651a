package actions

import (
	"errors"
	"fmt"
)

// Kind names a failure class. Wire kinds correspond one-to-one to the
// error codes the service reports; the two local kinds are synthesized by
// this client and never appear on the wire.
type Kind int

const (
	KindUnknown Kind = iota

	// Wire kinds, in error-code order (1..22).
	KindInternalError
	KindUnsupportedVersion
	KindInvalidCredentials
	KindInvalidProjectID
	KindSftpFailure
	KindInvalidInput
	KindFileWriteFailure
	KindInvalidAction
	KindPermissionDenied
	KindJobCommandError
	KindJobResultsError
	KindRecordError
	KindInsufficientCredit
	KindValueNotPositive
	KindJobNotFound
	KindJobNotDone
	KindInvalidMassBounds
	KindInvalidTier
	KindInvalidAlgorithmVersion
	KindUserNotFound
	KindInvalidScanFileCount
	KindInvalidBlacklistValue

	// Local kinds.
	KindTransportFailure
	KindResponseFormat
)

var kindNames = map[Kind]string{
	KindUnknown:                 "Unknown",
	KindInternalError:           "InternalError",
	KindUnsupportedVersion:      "UnsupportedVersion",
	KindInvalidCredentials:      "InvalidCredentials",
	KindInvalidProjectID:        "InvalidProjectId",
	KindSftpFailure:             "SftpFailure",
	KindInvalidInput:            "InvalidInput",
	KindFileWriteFailure:        "FileWriteFailure",
	KindInvalidAction:           "InvalidAction",
	KindPermissionDenied:        "PermissionDenied",
	KindJobCommandError:         "JobCommandError",
	KindJobResultsError:         "JobResultsError",
	KindRecordError:             "RecordError",
	KindInsufficientCredit:      "InsufficientCredit",
	KindValueNotPositive:        "ValueNotPositive",
	KindJobNotFound:             "JobNotFound",
	KindJobNotDone:              "JobNotDone",
	KindInvalidMassBounds:       "InvalidMassBounds",
	KindInvalidTier:             "InvalidTier",
	KindInvalidAlgorithmVersion: "InvalidAlgorithmVersion",
	KindUserNotFound:            "UserNotFound",
	KindInvalidScanFileCount:    "InvalidScanFileCount",
	KindInvalidBlacklistValue:   "InvalidBlacklistValue",
	KindTransportFailure:        "TransportFailure",
	KindResponseFormat:          "ResponseFormat",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// kindForWireCode maps every error code the service can report onto a
// Kind. The service documents these as negative result codes but carries
// them positive in the Error field of JSON replies; the table is keyed by
// the absolute value so both spellings resolve.
var kindForWireCode = map[int]Kind{
	1:  KindInternalError,
	2:  KindUnsupportedVersion,
	3:  KindInvalidCredentials,
	4:  KindInvalidProjectID,
	5:  KindSftpFailure,
	6:  KindInvalidInput,
	7:  KindFileWriteFailure,
	8:  KindInvalidAction,
	9:  KindPermissionDenied,
	10: KindJobCommandError,
	11: KindJobResultsError,
	12: KindRecordError,
	13: KindInsufficientCredit,
	14: KindValueNotPositive,
	15: KindJobNotFound,
	16: KindJobNotDone,
	17: KindInvalidMassBounds,
	18: KindInvalidTier,
	19: KindInvalidAlgorithmVersion,
	20: KindUserNotFound,
	21: KindInvalidScanFileCount,
	22: KindInvalidBlacklistValue,
}

// KindForCode resolves a wire error code (positive or negative) to its
// Kind. Unrecognized codes resolve to KindUnknown rather than failing,
// since the server may grow new codes ahead of this client.
func KindForCode(code int) Kind {
	if code < 0 {
		code = -code
	}
	if k, ok := kindForWireCode[code]; ok {
		return k
	}
	return KindUnknown
}

// ServerError is an explicit rejection reported by the service in a JSON
// reply. The message is surfaced verbatim so the caller can display it.
type ServerError struct {
	Code     int
	Kind     Kind
	Message  string
	Location string
}

func (e *ServerError) Error() string { return e.Message }

// FormatError reports a reply body that is not well-formed JSON or omits
// fields required for its declared action. No partial state from such a
// reply is ever trusted.
type FormatError struct {
	Action string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s response: %s: %v", e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s response: %s", e.Action, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// TransportError reports that the network layer could not complete an
// exchange with the control plane.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: unable to reach server: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SftpError reports a failure of the bulk data channel detected locally
// (session, directory, or transfer trouble), as opposed to an SFTP error
// code reported by the control plane.
type SftpError struct {
	Message string
}

func (e *SftpError) Error() string { return e.Message }

// KindOf classifies any error produced by this package or the transports
// into the taxonomy, unwrapping as needed. Protocol, transport, and parse
// failures never mix: a ServerError keeps its wire kind, local failures
// get their synthetic kind, and everything else is KindUnknown.
func KindOf(err error) Kind {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Kind
	}
	var formatErr *FormatError
	if errors.As(err, &formatErr) {
		return KindResponseFormat
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return KindTransportFailure
	}
	var sftpErr *SftpError
	if errors.As(err, &sftpErr) {
		return KindSftpFailure
	}
	return KindUnknown
}

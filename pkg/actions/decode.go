package actions

import (
	"encoding/json"
	"fmt"
	"time"
)

// datetimeLayout is the calendar format the service uses in STATUS and
// DELETE replies.
const datetimeLayout = "2006-01-02 15:04:05"

// wireEnvelope is the part of every reply shared across variants. A reply
// carrying an Error code is a rejection regardless of variant.
type wireEnvelope struct {
	Action   string `json:"Action"`
	Error    *int   `json:"Error"`
	Message  string `json:"Message"`
	Location string `json:"Location"`
}

// resolve unmarshals the shared envelope and classifies the outcome. It
// returns a ServerError for an explicit rejection, a FormatError for a
// malformed body, and nil when the body should decode as a success reply.
// Error handling is deliberately variant-agnostic.
func resolve(action string, body []byte) error {
	var env wireEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &FormatError{Action: action, Reason: "body is not valid JSON", Err: err}
	}
	if env.Error != nil {
		return &ServerError{
			Code:     *env.Error,
			Kind:     KindForCode(*env.Error),
			Message:  env.Message,
			Location: env.Location,
		}
	}
	return nil
}

// decodeInto resolves the envelope and then unmarshals the variant shape.
func decodeInto(action string, body []byte, out any) error {
	if err := resolve(action, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &FormatError{Action: action, Reason: "unexpected reply shape", Err: err}
	}
	return nil
}

// missingField builds the FormatError for a success reply that omits a
// field required by its declared action.
func missingField(action, field string) error {
	return &FormatError{Action: action, Reason: fmt.Sprintf("reply is missing %s", field)}
}

func parseDatetime(action, value string) (time.Time, error) {
	t, err := time.Parse(datetimeLayout, value)
	if err != nil {
		return time.Time{}, &FormatError{Action: action, Reason: fmt.Sprintf("bad Datetime %q", value), Err: err}
	}
	return t, nil
}

package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// FlexID is an identifier the game may send as a JSON number or a string.
// It always unmarshals to its decimal string form.
type FlexID string

var errFlexID = errors.New("id must be a string or an integer")

// UnmarshalJSON accepts "123", 123 and null.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errFlexID
	}
	s := n.String()
	if strings.ContainsAny(s, ".eE-+") {
		return errFlexID
	}
	*f = FlexID(s)
	return nil
}

// String returns the id.
func (f FlexID) String() string { return string(f) }

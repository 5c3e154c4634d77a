package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a report session.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusFailure
)

var statusNames = map[Status]string{
	StatusIdle:    "idle",
	StatusLoading: "loading",
	StatusSuccess: "success",
	StatusFailure: "failure",
}

// String returns the lowercase status name.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes the status as its name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name produced by MarshalJSON.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus returns the Status named name.
func ParseStatus(name string) (Status, error) {
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return StatusIdle, fmt.Errorf("unknown report status %q", name)
}

// ErrorKind classifies the message held in ReportSession.ErrorMessage.
type ErrorKind string

const (
	ErrorKindNone       ErrorKind = ""
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindRequest    ErrorKind = "request"
	ErrorKindTransport  ErrorKind = "transport"
)

// ReportSession is a read-only snapshot of one user's report generation state.
//
// ReportText is set only in StatusSuccess. ErrorMessage is set in
// StatusFailure, or in StatusIdle after a rejected (empty) submission.
// StatusLoading carries neither.
type ReportSession struct {
	Symbol       Symbol    `json:"symbol"`
	Status       Status    `json:"status"`
	ReportText   string    `json:"report,omitempty"`
	ErrorMessage string    `json:"error,omitempty"`
	ErrorKind    ErrorKind `json:"error_kind,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsLoading returns true while a request is outstanding.
func (s ReportSession) IsLoading() bool {
	return s.Status == StatusLoading
}

// HasError returns true when the error slot is populated.
func (s ReportSession) HasError() bool {
	return s.ErrorMessage != ""
}

package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// FailureKind classifies a failed query.
type FailureKind string

const (
	KindClient     FailureKind = "client"
	KindNotFound   FailureKind = "not_found"
	KindUpstream   FailureKind = "upstream"
	KindDeadline   FailureKind = "deadline"
	KindUnexpected FailureKind = "unexpected"
)

// Stage names the orchestration step an upstream failure happened in.
type Stage string

const (
	StageCreate    Stage = "create"
	StageMessage   Stage = "message"
	StageRunStart  Stage = "run-start"
	StageRunStatus Stage = "run-status"
	StageFetch     Stage = "fetch"
	StageNoReply   Stage = "no-reply"
	StageGenerate  Stage = "generate"
)

// Failure is the structured error every query path returns.
type Failure struct {
	Kind    FailureKind
	Stage   Stage
	Message string

	// Detail carries a short machine value, e.g. the terminal run status.
	Detail string

	// Details is the raw upstream payload, when one was received.
	Details json.RawMessage

	Err error
}

func (f *Failure) Error() string {
	msg := f.Message
	if f.Stage != "" {
		msg = fmt.Sprintf("%s [%s]", msg, f.Stage)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// HTTPStatus maps the failure kind to the response status code.
func (f *Failure) HTTPStatus() int {
	switch f.Kind {
	case KindClient:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindDeadline:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ClientError builds a KindClient failure.
func ClientError(msg string) *Failure {
	return &Failure{Kind: KindClient, Message: msg}
}

// UpstreamError builds a KindUpstream failure for the given stage.
func UpstreamError(stage Stage, msg string, details json.RawMessage, err error) *Failure {
	return &Failure{
		Kind:    KindUpstream,
		Stage:   stage,
		Message: msg,
		Details: details,
		Err:     err,
	}
}

// AsFailure extracts a *Failure from err. Any other error becomes KindUnexpected.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Kind: KindUnexpected, Message: err.Error(), Err: err}
}

// RawDetails turns an upstream body into a JSON value suitable for the
// "details" field. Non-JSON bodies are kept as a JSON string.
func RawDetails(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	encoded, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return encoded
}

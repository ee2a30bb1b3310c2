package tools

import (
	"encoding/json"
	"fmt"
)

// Kind tags a tool Result.
type Kind string

const (
	KindData    Kind = "data"
	KindNoData  Kind = "no_data"
	KindFailure Kind = "failure"
)

// Result is the outcome of one tool call: data, an explained absence of
// data, or a failure with a reason.
type Result struct {
	Kind   Kind
	Data   any
	Reason string
}

// Success wraps query output.
func Success(data any) Result { return Result{Kind: KindData, Data: data} }

// NoData reports that the query ran but matched nothing.
func NoData(reason string) Result { return Result{Kind: KindNoData, Reason: reason} }

// Failure reports a query or argument error.
func Failure(reason string) Result { return Result{Kind: KindFailure, Reason: reason} }

// Failuref is Failure with formatting.
func Failuref(format string, args ...any) Result { return Failure(fmt.Sprintf(format, args...)) }

// OK reports whether the call ran without error.
func (r Result) OK() bool { return r.Kind != KindFailure }

// Render produces the text handed to the language model: compact JSON for
// data, the plain sentence otherwise.
func (r Result) Render() string {
	if r.Kind != KindData {
		return r.Reason
	}
	b, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Sprintf("Error encoding result: %v", err)
	}
	return string(b)
}

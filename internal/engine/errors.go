package engine

import "fmt"

// IndeterminateStateError reports a record whose store write completed but
// whose log append did not. The record can be neither claimed complete (a
// rerun would silently skip a possibly-missing row) nor marked absent (a
// rerun would re-apply a possibly-present one), so the run halts and the
// operator must reconcile the store against the log by hand.
type IndeterminateStateError struct {
	Model    string
	Identity string
	Err      error
}

func (e *IndeterminateStateError) Error() string {
	return fmt.Sprintf("indeterminate state for %s/%s: written to the store but not durably logged: %v",
		e.Model, e.Identity, e.Err)
}

func (e *IndeterminateStateError) Unwrap() error {
	return e.Err
}

// ErrOnchangeUnsupported guards the onchange-trigger flag: triggering
// onchange methods as if data were entered through forms is accepted as
// configuration for compatibility but has never been implemented.
var ErrOnchangeUnsupported = fmt.Errorf("onchange triggering is not supported")

// Package tool implements the capability registry the execution agent
// dispatches through: a uniform invoke contract over a fixed capability set,
// schema-validated arguments, per-invocation timeouts and a closed failure
// taxonomy (timeout, invalid_input, upstream_failure) that is routed back
// into the control loop as data rather than raised errors.
package tool

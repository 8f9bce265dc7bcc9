/*
Package kanerr holds the structured error taxonomy the core raises.
Each variant is a Go struct implementing error and Unwrap so callers
can errors.As/errors.Is them, the idiomatic rendering of a tagged-union
error type grounded on the sentinel/struct-wrapping idiom used
throughout util/resolve (e.g. ErrNotFound wrapped with fmt.Errorf's
%w).
*/
package kanerr

import "fmt"

// NetworkError reports a transport failure while fetching url.
type NetworkError struct {
	URL   string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Cause)
}
func (e *NetworkError) Unwrap() error { return e.Cause }

// ParseError reports an invalid repository metadata file.
type ParseError struct {
	Repo  string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in repository %s: %v", e.Repo, e.Cause)
}
func (e *ParseError) Unwrap() error { return e.Cause }

// UnsupportedSpecError marks a repository whose metadata spec is newer
// than this implementation understands. It is non-fatal: the index is
// still accepted, but Pipeline.Update reports OutdatedClient.
type UnsupportedSpecError struct {
	Repo string
}

func (e *UnsupportedSpecError) Error() string {
	return fmt.Sprintf("repository %s uses an unsupported metadata spec version", e.Repo)
}

// DownloadTarget identifies one failed download for a DownloadErrors
// report.
type DownloadTarget struct {
	Repo string
	URL  string
}

// DownloadErrors wraps one or more per-target failures encountered
// during Pipeline.Update, alongside the ETag rollback that followed.
type DownloadErrors struct {
	Failures []DownloadFailure
}

// DownloadFailure pairs a target with the error encountered fetching
// or parsing it.
type DownloadFailure struct {
	Target DownloadTarget
	Cause  error
}

func (e *DownloadErrors) Error() string {
	if len(e.Failures) == 1 {
		f := e.Failures[0]
		return fmt.Sprintf("download failed for %s (%s): %v", f.Target.Repo, f.Target.URL, f.Cause)
	}
	return fmt.Sprintf("%d downloads failed", len(e.Failures))
}

func (e *DownloadErrors) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Cause
	}
	return errs
}

// IntegrityError reports a SHA256 mismatch on a downloaded file.
type IntegrityError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// UnmetDependenciesError reports resolver traces for every unsatisfied
// dependency chain. It is fatal unless the resolver was run with
// ProceedWithInconsistencies.
type UnmetDependenciesError struct {
	Traces [][]string
}

func (e *UnmetDependenciesError) Error() string {
	return fmt.Sprintf("%d unsatisfied dependency trace(s)", len(e.Traces))
}

// ConflictPair is one resolver-detected conflict.
type ConflictPair struct {
	Release      string
	Other        string
	DescriptorOf string
}

// ConflictsError reports every conflicting pair detected by the
// resolver. Fatal unless the resolver was run with
// ProceedWithInconsistencies.
type ConflictsError struct {
	Pairs []ConflictPair
}

func (e *ConflictsError) Error() string {
	return fmt.Sprintf("%d conflicting pair(s)", len(e.Pairs))
}

// InconsistentKind distinguishes the two ways sanity.Check can fail.
type InconsistentKind int

const (
	Unmet InconsistentKind = iota
	Conflict
)

func (k InconsistentKind) String() string {
	if k == Conflict {
		return "conflict"
	}
	return "unmet"
}

// InconsistentError is the sanity checker's composite failure: either
// or both of unmet dependencies and conflicts, reported together.
type InconsistentError struct {
	Kind    InconsistentKind
	Details string
}

func (e *InconsistentError) Error() string {
	return fmt.Sprintf("inconsistent (%s): %s", e.Kind, e.Details)
}

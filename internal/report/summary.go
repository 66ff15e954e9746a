// Package report tracks per-file outcomes of a batch step.
package report

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
)

// Summary counts what a batch step did with its inputs.
// A failed file never stops the batch; its error is kept here instead.
type Summary struct {
	Step      string
	Processed int // input files looked at
	Written   int // output files written
	Skipped   int // inputs with nothing to write
	Failed    int // inputs aborted by a per-file error
	errs      error
}

// New returns an empty summary for the named step.
func New(step string) *Summary {
	return &Summary{Step: step}
}

// Fail records a per-file error.
func (s *Summary) Fail(file string, err error) {
	s.Failed++
	s.errs = multierr.Append(s.errs, fmt.Errorf("%s: %w", file, err))
}

// Errors returns the individual per-file errors.
func (s *Summary) Errors() []error {
	return multierr.Errors(s.errs)
}

// Err returns the combined per-file errors, or nil if every file succeeded.
func (s *Summary) Err() error {
	return s.errs
}

// Merge adds the counts and failures of other into s.
func (s *Summary) Merge(other *Summary) {
	if other == nil {
		return
	}
	s.Processed += other.Processed
	s.Written += other.Written
	s.Skipped += other.Skipped
	s.Failed += other.Failed
	s.errs = multierr.Append(s.errs, other.errs)
}

// WriteTo writes a short human-readable summary.
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "%s: %d processed, %d written, %d skipped, %d failed\n",
		s.Step, s.Processed, s.Written, s.Skipped, s.Failed)
	if err != nil {
		return int64(n), err
	}
	total := int64(n)
	for _, e := range s.Errors() {
		n, err = fmt.Fprintf(w, "  %v\n", e)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

package tallyerr

import (
	"errors"
	"fmt"
	"log/slog"
)

// Errors accumulates several TallyError, for operations that keep going
// after a failure (like compiling a batch of expressions)
type Errors struct {
	errs []TallyError
}

func (r *Errors) With(err ...TallyError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil || len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

func (r *Errors) Errors() []TallyError {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) HasError() bool {
	if r == nil {
		return false
	}
	return len(r.errs) > 0
}

// Err returns nil when r holds no errors, so that callers can return it as a plain error
func (r *Errors) Err() error {
	if !r.HasError() {
		return nil
	}
	return r
}

func (r *Errors) Error() string {
	if !r.HasError() {
		return "no errors"
	}
	if len(r.errs) == 1 {
		return r.errs[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", r.errs[0].Error(), len(r.errs)-1)
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("e", i),
			Value: slog.GroupValue(
				slog.Attr{
					Key:   "msg",
					Value: slog.StringValue(FormatWithCode(v)),
				},
			),
		})
	}
	return slog.GroupValue(vals...)
}

// HasCode reports whether err, or any error it wraps, is a TallyError with the given code.
// An *Errors matches if any of its errors does.
func HasCode(err error, code ErrCode) bool {
	var many *Errors
	if errors.As(err, &many) {
		for _, e := range many.Errors() {
			if e.Code() == code {
				return true
			}
		}
		return false
	}
	var single TallyError
	if errors.As(err, &single) {
		return single.Code() == code
	}
	return false
}

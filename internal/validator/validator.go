package validator

import "fmt"

// Validator collects human-readable problems with a request, in the order they were found.
type Validator struct {
	Errors []string `json:"errors,omitempty"`
}

func (v Validator) HasErrors() bool {
	return len(v.Errors) != 0
}

func (v *Validator) AddError(message string) {
	if v.Errors == nil {
		v.Errors = []string{}
	}

	v.Errors = append(v.Errors, message)
}

func (v *Validator) Check(ok bool, message string) {
	if !ok {
		v.AddError(message)
	}
}

func (v *Validator) Checkf(ok bool, format string, args ...any) {
	if !ok {
		v.AddError(fmt.Sprintf(format, args...))
	}
}

package compiler

import (
	"fmt"
	"slices"
	"strings"
)

// Lint codes (E120-E129). Lint findings do not stop a program from
// compiling; the validate command reports them as warnings.
const (
	WarnNoEffect     = "E120" // no slice reacts to the action
	WarnEmptyHandler = "E121" // handle entry with no ops
	WarnDeadMatcher  = "E122" // matcher selects no declared action
	WarnUnknownType  = "E123" // matcher lists an undeclared type
)

// ValidationError is a lint finding on a compiled program.
type ValidationError struct {
	Slice   string `json:"slice"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] slice.%s.%s: %s", e.Code, e.Slice, e.Field, e.Message)
}

// Validate lints a compiled program. Every action reaches every slice
// reducer, so the checks look across slices. Findings are returned in
// slice order; an empty result means the program is clean.
func Validate(p *Program) []ValidationError {
	var errs []ValidationError

	var all []ActionDef
	anyDefault := false
	for _, d := range p.Slices() {
		all = append(all, d.Actions...)
		anyDefault = anyDefault || d.Default != nil
	}
	declared := make(map[string]bool, len(all))
	for _, a := range all {
		declared[a.Type] = true
	}

	for _, d := range p.Slices() {
		for _, a := range d.Actions {
			ops, handled := d.Handle[a.Key]
			if handled && len(ops) == 0 {
				errs = append(errs, ValidationError{
					Slice:   d.Name,
					Field:   "handle." + a.Key,
					Message: "handler has no ops and leaves the state unchanged",
					Code:    WarnEmptyHandler,
				})
			}
			if handled || anyDefault || matchedAnywhere(p, a) {
				continue
			}
			errs = append(errs, ValidationError{
				Slice:   d.Name,
				Field:   "actions." + a.Key,
				Message: fmt.Sprintf("no slice handles or matches %q", a.Type),
				Code:    WarnNoEffect,
			})
		}

		for i, m := range d.Match {
			field := fmt.Sprintf("match[%d]", i)
			for _, t := range m.Types {
				if !declared[t] {
					errs = append(errs, ValidationError{
						Slice:   d.Name,
						Field:   field,
						Message: fmt.Sprintf("type %q is not declared by any slice", t),
						Code:    WarnUnknownType,
					})
				}
			}
			if !slices.ContainsFunc(all, m.Selects) {
				errs = append(errs, ValidationError{
					Slice:   d.Name,
					Field:   field,
					Message: "matcher selects none of the declared actions",
					Code:    WarnDeadMatcher,
				})
			}
		}
	}
	return errs
}

// Selects reports whether the matcher runs for actions declared as a.
func (m MatchDef) Selects(a ActionDef) bool {
	if m.Prefix != "" && !strings.HasPrefix(a.Type, m.Prefix) {
		return false
	}
	if len(m.Types) > 0 && !slices.Contains(m.Types, a.Type) {
		return false
	}
	if m.PayloadOnly && a.Payload == PayloadNone {
		return false
	}
	return true
}

func matchedAnywhere(p *Program, a ActionDef) bool {
	for _, d := range p.Slices() {
		if slices.ContainsFunc(d.Match, func(m MatchDef) bool { return m.Selects(a) }) {
			return true
		}
	}
	return false
}

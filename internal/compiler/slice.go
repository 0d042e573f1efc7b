package compiler

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/redg/internal/wire"
)

//go:embed schema.cue
var schemaCUE string

// PayloadKind is the declared payload type of an action. Floats are not
// supported.
type PayloadKind string

const (
	PayloadNone   PayloadKind = ""
	PayloadString PayloadKind = "string"
	PayloadInt    PayloadKind = "int"
	PayloadBool   PayloadKind = "bool"
	PayloadArray  PayloadKind = "array"
	PayloadObject PayloadKind = "object"
	PayloadAny    PayloadKind = "any"
)

var payloadKinds = map[string]PayloadKind{
	"string": PayloadString,
	"int":    PayloadInt,
	"bool":   PayloadBool,
	"array":  PayloadArray,
	"object": PayloadObject,
	"any":    PayloadAny,
}

// Accepts reports whether the canonical value v has kind k. null is
// accepted by every payload kind.
func (k PayloadKind) Accepts(v any) bool {
	if v == nil {
		return true
	}
	switch k {
	case PayloadString:
		_, ok := v.(string)
		return ok
	case PayloadInt:
		_, ok := v.(int64)
		return ok
	case PayloadBool:
		_, ok := v.(bool)
		return ok
	case PayloadArray:
		_, ok := v.([]any)
		return ok
	case PayloadObject:
		_, ok := v.(map[string]any)
		return ok
	case PayloadAny:
		return !hasFloat(v)
	default:
		return false
	}
}

// ActionDef is one declared action of a slice.
type ActionDef struct {
	Key     string
	Type    string
	Payload PayloadKind
}

// MatchDef is a matcher: ops applied to every action selected by all of
// the given conditions.
type MatchDef struct {
	Prefix      string
	Types       []string
	PayloadOnly bool
	Ops         []Op
}

// SliceDef is a compiled slice definition.
type SliceDef struct {
	Name    string
	Initial any
	Actions []ActionDef
	Handle  map[string][]Op
	Default []Op
	Match   []MatchDef
}

// Action returns the action declared under key.
func (d *SliceDef) Action(key string) (ActionDef, bool) {
	for _, a := range d.Actions {
		if a.Key == key {
			return a, true
		}
	}
	return ActionDef{}, false
}

// CompileSlice parses a CUE value into a SliceDef.
//
// The CUE value should be the slice struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`slice: counter: { ... }`)
//	def, err := CompileSlice(v.LookupPath(cue.ParsePath("slice.counter")))
func CompileSlice(v cue.Value) (*SliceDef, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := checkSchema(v); err != nil {
		return nil, err
	}

	def := &SliceDef{Handle: make(map[string][]Op)}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		def.Name = labels[len(labels)-1].String()
	}

	var err error
	if def.Initial, err = parseInitial(v); err != nil {
		return nil, err
	}

	if def.Actions, err = parseActions(v); err != nil {
		return nil, err
	}

	if err := parseHandle(v, def); err != nil {
		return nil, err
	}

	if dv := v.LookupPath(cue.ParsePath("default")); dv.Exists() {
		if def.Default, err = parseOps(dv, PayloadAny); err != nil {
			return nil, err
		}
	}

	if def.Match, err = parseMatch(v); err != nil {
		return nil, err
	}

	return def, nil
}

// checkSchema unifies v with #Slice so that unknown fields and wrongly
// shaped sections are reported with their positions.
func checkSchema(v cue.Value) error {
	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile slice schema: %w", err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Slice")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

func parseInitial(v cue.Value) (any, error) {
	iv := v.LookupPath(cue.ParsePath("initial"))
	if !iv.Exists() {
		return map[string]any{}, nil
	}
	val, err := literal(iv)
	if err != nil {
		return nil, err
	}
	if hasFloat(val) {
		return nil, &CompileError{Field: "initial", Message: "floats are not supported", Pos: iv.Pos()}
	}
	return val, nil
}

func parseActions(v cue.Value) ([]ActionDef, error) {
	av := v.LookupPath(cue.ParsePath("actions"))
	if !av.Exists() {
		return nil, &CompileError{Field: "actions", Message: "actions are required", Pos: v.Pos()}
	}

	iter, err := av.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var actions []ActionDef
	seen := make(map[string]string)
	for iter.Next() {
		key := iter.Label()
		val := iter.Value()

		typ, err := val.LookupPath(cue.ParsePath("type")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if prev, dup := seen[typ]; dup {
			return nil, &CompileError{
				Field:   "action.duplicate",
				Message: fmt.Sprintf("actions %q and %q share type %q", prev, key, typ),
				Pos:     val.Pos(),
			}
		}
		seen[typ] = key

		def := ActionDef{Key: key, Type: typ}
		if pv := val.LookupPath(cue.ParsePath("payload")); pv.Exists() {
			name, err := pv.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			kind, ok := payloadKinds[name]
			if !ok {
				return nil, &CompileError{
					Field:   "action.payload",
					Message: fmt.Sprintf("invalid payload type %q (want string, int, bool, array, object or any)", name),
					Pos:     pv.Pos(),
				}
			}
			def.Payload = kind
		}
		actions = append(actions, def)
	}

	if len(actions) == 0 {
		return nil, &CompileError{Field: "actions", Message: "at least one action is required", Pos: av.Pos()}
	}
	return actions, nil
}

func parseHandle(v cue.Value, def *SliceDef) error {
	hv := v.LookupPath(cue.ParsePath("handle"))
	if !hv.Exists() {
		return nil
	}

	iter, err := hv.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		key := iter.Label()
		a, ok := def.Action(key)
		if !ok {
			return &CompileError{
				Field:   "handle",
				Message: fmt.Sprintf("unknown action %q", key),
				Pos:     iter.Value().Pos(),
			}
		}
		ops, err := parseOps(iter.Value(), a.Payload)
		if err != nil {
			return err
		}
		def.Handle[key] = ops
	}
	return nil
}

func parseMatch(v cue.Value) ([]MatchDef, error) {
	mv := v.LookupPath(cue.ParsePath("match"))
	if !mv.Exists() {
		return nil, nil
	}

	iter, err := mv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var matchers []MatchDef
	for iter.Next() {
		elem := iter.Value()
		var m MatchDef

		if pv := elem.LookupPath(cue.ParsePath("prefix")); pv.Exists() {
			if m.Prefix, err = pv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if tv := elem.LookupPath(cue.ParsePath("type")); tv.Exists() {
			t, err := tv.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			m.Types = append(m.Types, t)
		}
		if tv := elem.LookupPath(cue.ParsePath("types")); tv.Exists() {
			var types []string
			if err := tv.Decode(&types); err != nil {
				return nil, formatCUEError(err)
			}
			m.Types = append(m.Types, types...)
		}
		if pv := elem.LookupPath(cue.ParsePath("payload")); pv.Exists() {
			if m.PayloadOnly, err = pv.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if m.Prefix == "" && len(m.Types) == 0 && !m.PayloadOnly {
			return nil, &CompileError{
				Field:   "match",
				Message: "matcher needs prefix, type, types or payload: true",
				Pos:     elem.Pos(),
			}
		}

		if m.Ops, err = parseOps(elem.LookupPath(cue.ParsePath("ops")), PayloadAny); err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

// parseOps compiles a list of ops. payload is the payload kind of the
// handled action; PayloadNone forbids reading from the payload.
func parseOps(v cue.Value, payload PayloadKind) ([]Op, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var ops []Op
	for iter.Next() {
		op, err := parseOp(iter.Value(), payload)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func parseOp(v cue.Value, payload PayloadKind) (Op, error) {
	kind, err := v.LookupPath(cue.ParsePath("op")).String()
	if err != nil {
		return Op{}, formatCUEError(err)
	}
	op := Op{Kind: OpKind(kind)}

	if fv := v.LookupPath(cue.ParsePath("field")); fv.Exists() {
		field, err := fv.String()
		if err != nil {
			return Op{}, formatCUEError(err)
		}
		if field != "" {
			op.Field = strings.Split(field, ".")
		}
	}

	opErr := func(msg string) error {
		return &CompileError{Field: "op", Message: fmt.Sprintf("%s: %s", kind, msg), Pos: v.Pos()}
	}

	if op.Kind == OpUnset && len(op.Field) == 0 {
		return Op{}, opErr("field is required")
	}

	valueV := v.LookupPath(cue.ParsePath("value"))
	fromV := v.LookupPath(cue.ParsePath("from"))

	if !op.needsOperand() {
		if valueV.Exists() || fromV.Exists() {
			return Op{}, opErr("takes no value")
		}
		return op, nil
	}

	switch {
	case valueV.Exists() && fromV.Exists():
		return Op{}, opErr("value and from are mutually exclusive")

	case valueV.Exists():
		if op.Value, err = literal(valueV); err != nil {
			return Op{}, err
		}
		if hasFloat(op.Value) {
			return Op{}, opErr("floats are not supported")
		}
		if _, isInt := op.Value.(int64); op.Kind == OpAdd && !isInt {
			return Op{}, opErr("value must be an integer")
		}

	case fromV.Exists():
		if payload == PayloadNone {
			return Op{}, opErr("action has no payload")
		}
		from, err := fromV.String()
		if err != nil {
			return Op{}, formatCUEError(err)
		}
		op.FromPayload = true
		if rest, ok := strings.CutPrefix(from, "payload."); ok {
			op.PayloadPath = strings.Split(rest, ".")
		}

	default:
		return Op{}, opErr("value or from is required")
	}

	return op, nil
}

// literal converts a concrete CUE value into its canonical Go form.
func literal(v cue.Value) (any, error) {
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	val, err := wire.DecodeJSON(data)
	if err != nil {
		return nil, &CompileError{Field: "value", Message: err.Error(), Pos: v.Pos()}
	}
	return val, nil
}

func hasFloat(v any) bool {
	switch val := v.(type) {
	case json.Number:
		return true
	case []any:
		for _, e := range val {
			if hasFloat(e) {
				return true
			}
		}
	case map[string]any:
		for _, e := range val {
			if hasFloat(e) {
				return true
			}
		}
	}
	return false
}

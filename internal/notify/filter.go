package notify

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/rzbill/canvass/internal/mailbox"
)

// Filter wraps a compiled CEL program evaluated against outbound events on a
// subscription. When disabled (empty expression), Match always returns true.
type Filter struct {
	prog    cel.Program
	enabled bool
}

// NewFilter compiles expr. Exposed variables:
//   - type:   the event type string ("new-survey", "closed-survey", ...)
//   - text:   the raw payload string
//   - json:   the parsed JSON payload, when the payload is JSON
//   - now_ms: current time in milliseconds for windowed filters
func NewFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("type", cel.StringType),
		cel.Variable("text", cel.StringType),
		cel.Variable("json", cel.DynType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return Filter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return Filter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return Filter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return Filter{}, err
	}
	return Filter{prog: prog, enabled: true}, nil
}

// Match evaluates the expression against an event. Evaluation errors count
// as a non-match.
func (f Filter) Match(ev mailbox.Event) bool {
	if !f.enabled {
		return true
	}
	var jsonObj any
	_ = json.Unmarshal([]byte(ev.Data), &jsonObj)
	out, _, err := f.prog.Eval(map[string]any{
		"type":   ev.Type,
		"text":   ev.Data,
		"json":   jsonObj,
		"now_ms": time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

package gate

import (
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"trialgate/domain/core"
)

// CompiledExpr is a boolean expression over signal ids, compiled once
// at configuration load time. Configuration documents may write the
// short operator forms ("S1 & S2", "S5 & (S7 | S6)"); they are
// normalized to the engine's && / || before compilation.
type CompiledExpr struct {
	raw     string
	program *vm.Program
	signals []core.SignalID
	known   map[core.SignalID]bool
}

// Compile parses, validates and compiles an expression. Every
// identifier must be a member of the known signal set; anything else
// is a configuration error.
func Compile(ownerID string, raw string, known map[core.SignalID]bool) (*CompiledExpr, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, core.NewExpressionError(ownerID, raw, core.NewConfigError("expression", "empty"))
	}
	normalized := normalizeOperators(raw)

	tree, err := parser.Parse(normalized)
	if err != nil {
		return nil, core.NewExpressionError(ownerID, raw, err)
	}

	collector := &identCollector{seen: make(map[string]bool)}
	ast.Walk(&tree.Node, collector)

	signals := make([]core.SignalID, 0, len(collector.seen))
	for ident := range collector.seen {
		id := core.SignalID(ident)
		if !known[id] {
			return nil, core.NewUnknownSignalError(ownerID, ident)
		}
		signals = append(signals, id)
	}
	sort.Slice(signals, func(i, j int) bool { return signals[i] < signals[j] })

	// The compile-time environment binds every known signal id, so the
	// compiler itself enforces the closed identifier set.
	prototype := make(map[string]bool, len(known))
	knownCopy := make(map[core.SignalID]bool, len(known))
	for id := range known {
		prototype[string(id)] = false
		knownCopy[id] = true
	}
	program, err := expr.Compile(normalized, expr.Env(prototype), expr.AsBool())
	if err != nil {
		return nil, core.NewExpressionError(ownerID, raw, err)
	}

	return &CompiledExpr{
		raw:     raw,
		program: program,
		signals: signals,
		known:   knownCopy,
	}, nil
}

// Eval evaluates the expression against the set of fired signal ids.
// Every known signal is bound, so evaluation cannot fail at run time.
func (e *CompiledExpr) Eval(present map[core.SignalID]bool) bool {
	env := make(map[string]bool, len(e.known))
	for id := range e.known {
		env[string(id)] = present[id]
	}
	out, err := expr.Run(e.program, env)
	if err != nil {
		return false
	}
	fired, ok := out.(bool)
	return ok && fired
}

// Raw returns the expression as written in the configuration document.
func (e *CompiledExpr) Raw() string { return e.raw }

// Signals returns the sorted set of signal ids the expression references.
func (e *CompiledExpr) Signals() []core.SignalID {
	out := make([]core.SignalID, len(e.signals))
	copy(out, e.signals)
	return out
}

// FiredSignals returns the referenced signals that are present, in
// sorted id order. These are the gate's contributing signals.
func (e *CompiledExpr) FiredSignals(present map[core.SignalID]bool) []core.SignalID {
	var fired []core.SignalID
	for _, id := range e.signals {
		if present[id] {
			fired = append(fired, id)
		}
	}
	return fired
}

type identCollector struct {
	seen map[string]bool
}

func (c *identCollector) Visit(node *ast.Node) {
	if n, ok := (*node).(*ast.IdentifierNode); ok {
		c.seen[n.Value] = true
	}
}

// normalizeOperators rewrites single & and | to the engine's && / ||,
// leaving already-doubled operators untouched.
func normalizeOperators(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + 8)
	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if ch == '&' || ch == '|' {
			b.WriteRune(ch)
			b.WriteRune(ch)
			if i+1 < len(runes) && runes[i+1] == ch {
				i++
			}
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

package debugger

import (
	"fmt"

	"riscv-sim/core"
)

// ExpressionEvaluator evaluates debugger expressions (registers, CSRs,
// memory, symbols, $N value history, and the usual C-style operators)
// against a hart's live state, via ExprLexer/ExprParser's precedence
// climbing.
type ExpressionEvaluator struct {
	valueHistory []uint64
	valueNumber  int
}

func NewExpressionEvaluator() *ExpressionEvaluator {
	return &ExpressionEvaluator{}
}

// EvaluateExpression evaluates expr and records the result in the
// $N value history.
func (e *ExpressionEvaluator) EvaluateExpression(expr string, h *core.Hart, symbols map[string]uint64) (uint64, error) {
	result, err := e.evaluate(expr, h, symbols)
	if err != nil {
		return 0, err
	}

	e.valueHistory = append(e.valueHistory, result)
	e.valueNumber = len(e.valueHistory)

	return result, nil
}

// Evaluate evaluates expr as a boolean condition (breakpoint "if"
// clauses), without recording it in the value history.
func (e *ExpressionEvaluator) Evaluate(expr string, h *core.Hart, symbols map[string]uint64) (bool, error) {
	result, err := e.evaluate(expr, h, symbols)
	if err != nil {
		return false, err
	}
	return result != 0, nil
}

func (e *ExpressionEvaluator) GetValueNumber() int {
	return e.valueNumber
}

func (e *ExpressionEvaluator) GetValue(number int) (uint64, error) {
	if number < 1 || number > len(e.valueHistory) {
		return 0, fmt.Errorf("value $%d not in history", number)
	}
	return e.valueHistory[number-1], nil
}

func (e *ExpressionEvaluator) evaluate(expr string, h *core.Hart, symbols map[string]uint64) (uint64, error) {
	if expr == "" {
		return 0, fmt.Errorf("empty expression")
	}

	tokens := NewExprLexer(expr).TokenizeAll()
	return NewExprParser(tokens, h, symbols, e).Parse()
}

// Reset clears the value history.
func (e *ExpressionEvaluator) Reset() {
	e.valueHistory = e.valueHistory[:0]
	e.valueNumber = 0
}

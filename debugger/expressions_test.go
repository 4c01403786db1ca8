package debugger

import (
	"testing"

	"riscv-sim/core"
)

func TestExpressionEvaluator_Numbers(t *testing.T) {
	eval := NewExpressionEvaluator()
	h := newTestHart(t)
	symbols := make(map[string]uint64)

	tests := []struct {
		name string
		expr string
		want uint64
	}{
		{"Decimal", "42", 42},
		{"Hex", "0x100", 0x100},
		{"Hex uppercase", "0X1A", 0x1A},
		{"Binary", "0b1010", 0b1010},
		{"Octal", "010", 8},
		{"Negative", "-1", 0xFFFFFFFFFFFFFFFF},
		{"Large hex", "0xFFFFFFFF", 0xFFFFFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvaluateExpression(tt.expr, h, symbols)
			if err != nil {
				t.Fatalf("EvaluateExpression() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("EvaluateExpression() = 0x%X, want 0x%X", got, tt.want)
			}
		})
	}
}

func TestExpressionEvaluator_Registers(t *testing.T) {
	eval := NewExpressionEvaluator()
	h := newTestHart(t)
	symbols := make(map[string]uint64)

	h.IntRegs.Write(10, 100) // a0
	h.IntRegs.Write(5, 200)  // t0
	h.IntRegs.Write(2, 0x1000) // sp
	h.PC = 0x8000_0300

	tests := []struct {
		name string
		expr string
		want uint64
	}{
		{"a0", "a0", 100},
		{"t0", "t0", 200},
		{"sp", "sp", 0x1000},
		{"x2", "x2", 0x1000},
		{"pc", "pc", 0x8000_0300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvaluateExpression(tt.expr, h, symbols)
			if err != nil {
				t.Fatalf("EvaluateExpression() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("EvaluateExpression() = 0x%X, want 0x%X", got, tt.want)
			}
		})
	}
}

func TestExpressionEvaluator_CSR(t *testing.T) {
	eval := NewExpressionEvaluator()
	h := newTestHart(t)
	symbols := make(map[string]uint64)

	h.CSRs.Poke(core.CsrMepc, 0x8000_1000)

	got, err := eval.EvaluateExpression("mepc", h, symbols)
	if err != nil {
		t.Fatalf("EvaluateExpression(mepc) error = %v", err)
	}
	if got != 0x8000_1000 {
		t.Errorf("mepc = 0x%X, want 0x80001000", got)
	}
}

func TestExpressionEvaluator_Symbols(t *testing.T) {
	eval := NewExpressionEvaluator()
	h := newTestHart(t)
	symbols := map[string]uint64{
		"main":   0x8000_1000,
		"loop":   0x8000_2000,
		"_start": 0x8000_0000,
	}

	for name, want := range symbols {
		t.Run(name, func(t *testing.T) {
			got, err := eval.EvaluateExpression(name, h, symbols)
			if err != nil {
				t.Fatalf("EvaluateExpression() error = %v", err)
			}
			if got != want {
				t.Errorf("EvaluateExpression() = 0x%X, want 0x%X", got, want)
			}
		})
	}
}

func TestExpressionEvaluator_Memory(t *testing.T) {
	eval := NewExpressionEvaluator()
	h := newTestHart(t)

	dataAddr := uint64(0x8000_0010)
	symbols := map[string]uint64{"data": dataAddr}

	h.Mem.WriteDWord(dataAddr, 0x12345678)
	h.Mem.WriteDWord(dataAddr+0x100, 0xABCDEF00)

	tests := []struct {
		name string
		expr string
		want uint64
	}{
		{"Bracket notation", "[0x80000010]", 0x12345678},
		{"Star notation", "*0x80000110", 0xABCDEF00},
		{"Symbol in brackets", "[data]", 0x12345678},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvaluateExpression(tt.expr, h, symbols)
			if err != nil {
				t.Fatalf("EvaluateExpression() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("EvaluateExpression() = 0x%X, want 0x%X", got, tt.want)
			}
		})
	}
}

func TestExpressionEvaluator_Arithmetic(t *testing.T) {
	eval := NewExpressionEvaluator()
	h := newTestHart(t)
	symbols := make(map[string]uint64)

	tests := []struct {
		name string
		expr string
		want uint64
	}{
		{"Addition", "10 + 20", 30},
		{"Subtraction", "50 - 20", 30},
		{"Multiplication", "5 * 6", 30},
		{"Division", "60 / 2", 30},
		{"Hex addition", "0x10 + 0x20", 0x30},
		{"Precedence", "2 + 3 * 4", 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvaluateExpression(tt.expr, h, symbols)
			if err != nil {
				t.Fatalf("EvaluateExpression() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("EvaluateExpression() = 0x%X, want 0x%X", got, tt.want)
			}
		})
	}
}

func TestExpressionEvaluator_Bitwise(t *testing.T) {
	eval := NewExpressionEvaluator()
	h := newTestHart(t)
	symbols := make(map[string]uint64)

	tests := []struct {
		name string
		expr string
		want uint64
	}{
		{"AND", "0xFF & 0x0F", 0x0F},
		{"OR", "0xF0 | 0x0F", 0xFF},
		{"XOR", "0xFF ^ 0x0F", 0xF0},
		{"Left shift", "1 << 4", 16},
		{"Right shift", "16 >> 2", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvaluateExpression(tt.expr, h, symbols)
			if err != nil {
				t.Fatalf("EvaluateExpression() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("EvaluateExpression() = 0x%X, want 0x%X", got, tt.want)
			}
		})
	}
}

func TestExpressionEvaluator_RegisterOperations(t *testing.T) {
	eval := NewExpressionEvaluator()
	h := newTestHart(t)
	symbols := make(map[string]uint64)

	h.IntRegs.Write(10, 10) // a0
	h.IntRegs.Write(11, 20) // a1

	tests := []struct {
		name string
		expr string
		want uint64
	}{
		{"Register addition", "a0 + a1", 30},
		{"Register with constant", "a0 + 5", 15},
		{"Register subtraction", "a1 - a0", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvaluateExpression(tt.expr, h, symbols)
			if err != nil {
				t.Fatalf("EvaluateExpression() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("EvaluateExpression() = 0x%X, want 0x%X", got, tt.want)
			}
		})
	}
}

func TestExpressionEvaluator_ValueHistory(t *testing.T) {
	eval := NewExpressionEvaluator()
	h := newTestHart(t)
	symbols := make(map[string]uint64)

	val1, _ := eval.EvaluateExpression("42", h, symbols)
	val2, _ := eval.EvaluateExpression("100", h, symbols)

	if eval.GetValueNumber() != 2 {
		t.Errorf("ValueNumber = %d, want 2", eval.GetValueNumber())
	}

	got1, err := eval.GetValue(1)
	if err != nil {
		t.Fatalf("GetValue(1) error = %v", err)
	}
	if got1 != val1 {
		t.Errorf("GetValue(1) = %d, want %d", got1, val1)
	}

	got2, err := eval.GetValue(2)
	if err != nil {
		t.Fatalf("GetValue(2) error = %v", err)
	}
	if got2 != val2 {
		t.Errorf("GetValue(2) = %d, want %d", got2, val2)
	}

	_, err = eval.GetValue(999)
	if err == nil {
		t.Error("Expected error for invalid value number")
	}
}

func TestExpressionEvaluator_BooleanEvaluation(t *testing.T) {
	eval := NewExpressionEvaluator()
	h := newTestHart(t)
	symbols := make(map[string]uint64)

	h.IntRegs.Write(10, 42) // a0

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"Zero is false", "0", false},
		{"Non-zero is true", "42", true},
		{"Register non-zero", "a0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Evaluate(tt.expr, h, symbols)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpressionEvaluator_Errors(t *testing.T) {
	eval := NewExpressionEvaluator()
	h := newTestHart(t)
	symbols := make(map[string]uint64)

	tests := []struct {
		name string
		expr string
	}{
		{"Empty expression", ""},
		{"Unknown symbol", "unknown_symbol"},
		{"Division by zero", "10 / 0"},
		{"Invalid hex", "0xGGGG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eval.EvaluateExpression(tt.expr, h, symbols)
			if err == nil {
				t.Error("Expected error but got none")
			}
		})
	}
}

func TestExpressionEvaluator_Reset(t *testing.T) {
	eval := NewExpressionEvaluator()
	h := newTestHart(t)
	symbols := make(map[string]uint64)

	_, _ = eval.EvaluateExpression("42", h, symbols)
	_, _ = eval.EvaluateExpression("100", h, symbols)

	if eval.GetValueNumber() != 2 {
		t.Error("Value number should be 2 before reset")
	}

	eval.Reset()

	if eval.GetValueNumber() != 0 {
		t.Error("Value number should be 0 after reset")
	}

	if len(eval.valueHistory) != 0 {
		t.Error("Value history should be empty after reset")
	}
}

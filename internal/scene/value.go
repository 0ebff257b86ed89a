package scene

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ValueType discriminates Value.
type ValueType int

const (
	TypeUndef ValueType = iota
	TypeBool
	TypeNumber
	TypeString
	TypeVector
)

// Value is the result of evaluating an expression.
type Value struct {
	Type ValueType
	Num  float64
	Bool bool
	Str  string
	Vec  []Value
}

// Undef is the undefined value.
var Undef = Value{}

func NumberValue(v float64) Value  { return Value{Type: TypeNumber, Num: v} }
func BoolValue(v bool) Value       { return Value{Type: TypeBool, Bool: v} }
func StringValue(v string) Value   { return Value{Type: TypeString, Str: v} }
func VectorValue(v ...Value) Value { return Value{Type: TypeVector, Vec: v} }

// String renders v the way echo prints it.
func (v Value) String() string {
	switch v.Type {
	case TypeBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case TypeNumber:
		return FormatNumber(v.Num)
	case TypeString:
		return quote(v.Str)
	case TypeVector:
		parts := make([]string, len(v.Vec))
		for i, e := range v.Vec {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "undef"
}

// Truthy reports v's boolean interpretation.
func (v Value) Truthy() bool {
	switch v.Type {
	case TypeBool:
		return v.Bool
	case TypeNumber:
		return v.Num != 0
	case TypeString:
		return v.Str != ""
	case TypeVector:
		return len(v.Vec) > 0
	}
	return false
}

// Number returns the numeric value and whether v is a finite number.
func (v Value) Number() (float64, bool) {
	if v.Type != TypeNumber || math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
		return 0, false
	}
	return v.Num, true
}

// Vec3 reads v as a 3-vector. A number fills every component; a shorter
// vector is padded with fill.
func (v Value) Vec3(fill float64) (r3.Vec, bool) {
	if n, ok := v.Number(); ok {
		return r3.Vec{X: n, Y: n, Z: n}, true
	}
	if v.Type != TypeVector || len(v.Vec) == 0 || len(v.Vec) > 3 {
		return r3.Vec{}, false
	}
	c := [3]float64{fill, fill, fill}
	for i, e := range v.Vec {
		n, ok := e.Number()
		if !ok {
			return r3.Vec{}, false
		}
		c[i] = n
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, true
}

// Points reads v as a list of 2D or 3D points.
func (v Value) Points() ([]r3.Vec, bool) {
	if v.Type != TypeVector {
		return nil, false
	}
	out := make([]r3.Vec, 0, len(v.Vec))
	for _, p := range v.Vec {
		if p.Type != TypeVector || len(p.Vec) < 2 {
			return nil, false
		}
		pt, ok := p.Vec3(0)
		if !ok {
			return nil, false
		}
		out = append(out, pt)
	}
	return out, true
}

// Indices reads v as a list of index lists.
func (v Value) Indices() ([][]int, bool) {
	if v.Type != TypeVector {
		return nil, false
	}
	out := make([][]int, 0, len(v.Vec))
	for _, row := range v.Vec {
		if row.Type != TypeVector {
			return nil, false
		}
		idx := make([]int, 0, len(row.Vec))
		for _, e := range row.Vec {
			n, ok := e.Number()
			if !ok || n < 0 || n != math.Trunc(n) {
				return nil, false
			}
			idx = append(idx, int(n))
		}
		out = append(out, idx)
	}
	return out, true
}

// FormatNumber prints n with the shortest representation that round-trips.
func FormatNumber(n float64) string {
	if n == 0 {
		return "0"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)
	return `"` + r.Replace(s) + `"`
}

func equalValues(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeBool:
		return a.Bool == b.Bool
	case TypeNumber:
		return a.Num == b.Num
	case TypeString:
		return a.Str == b.Str
	case TypeVector:
		if len(a.Vec) != len(b.Vec) {
			return false
		}
		for i := range a.Vec {
			if !equalValues(a.Vec[i], b.Vec[i]) {
				return false
			}
		}
	}
	return true
}

func binaryOp(op string, a, b Value) Value {
	switch op {
	case "==":
		return BoolValue(equalValues(a, b))
	case "!=":
		return BoolValue(!equalValues(a, b))
	case "&&":
		return BoolValue(a.Truthy() && b.Truthy())
	case "||":
		return BoolValue(a.Truthy() || b.Truthy())
	}

	if a.Type == TypeNumber && b.Type == TypeNumber {
		x, y := a.Num, b.Num
		switch op {
		case "+":
			return NumberValue(x + y)
		case "-":
			return NumberValue(x - y)
		case "*":
			return NumberValue(x * y)
		case "/":
			return NumberValue(x / y)
		case "%":
			return NumberValue(math.Mod(x, y))
		case "^":
			return NumberValue(math.Pow(x, y))
		case "<":
			return BoolValue(x < y)
		case "<=":
			return BoolValue(x <= y)
		case ">":
			return BoolValue(x > y)
		case ">=":
			return BoolValue(x >= y)
		}
		return Undef
	}

	switch {
	case a.Type == TypeVector && b.Type == TypeVector && (op == "+" || op == "-"):
		if len(a.Vec) != len(b.Vec) {
			return Undef
		}
		out := make([]Value, len(a.Vec))
		for i := range a.Vec {
			out[i] = binaryOp(op, a.Vec[i], b.Vec[i])
		}
		return VectorValue(out...)
	case a.Type == TypeVector && b.Type == TypeNumber && (op == "*" || op == "/"):
		out := make([]Value, len(a.Vec))
		for i := range a.Vec {
			out[i] = binaryOp(op, a.Vec[i], b)
		}
		return VectorValue(out...)
	case a.Type == TypeNumber && b.Type == TypeVector && op == "*":
		return binaryOp(op, b, a)
	case a.Type == TypeString && b.Type == TypeString:
		switch op {
		case "<":
			return BoolValue(a.Str < b.Str)
		case "<=":
			return BoolValue(a.Str <= b.Str)
		case ">":
			return BoolValue(a.Str > b.Str)
		case ">=":
			return BoolValue(a.Str >= b.Str)
		}
	}
	return Undef
}

func unaryOp(op string, v Value) Value {
	switch op {
	case "!":
		return BoolValue(!v.Truthy())
	case "+":
		return v
	case "-":
		switch v.Type {
		case TypeNumber:
			return NumberValue(-v.Num)
		case TypeVector:
			out := make([]Value, len(v.Vec))
			for i, e := range v.Vec {
				out[i] = unaryOp(op, e)
			}
			return VectorValue(out...)
		}
	}
	return Undef
}

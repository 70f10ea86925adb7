package emit

import (
	"fmt"
	"reflect"
	"strings"
)

// Disassemble returns a human-readable listing of a program.
func Disassemble(p *Program) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", p.Name))
	if p.Locals > 0 {
		sb.WriteString(fmt.Sprintf(".locals %d\n", p.Locals))
	}

	instrs, err := Decode(p.Code)
	if err != nil {
		sb.WriteString(fmt.Sprintf("(undecodable: %v)\n", err))
		return sb.String()
	}
	for _, in := range instrs {
		disassembleInstruction(&sb, p.Tokens, in)
	}
	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, tokens []any, in Instruction) {
	sb.WriteString(fmt.Sprintf("%04d  ", in.Offset))

	switch in.Op.Operand() {
	case OperandNone:
		sb.WriteString(in.Op.String())
	case OperandInt8, OperandInt32, OperandLocal:
		sb.WriteString(fmt.Sprintf("%-12s %d", in.Op, in.Operand))
	case OperandToken:
		sb.WriteString(fmt.Sprintf("%-12s %s", in.Op, tokenString(tokens, int(in.Operand))))
	}
	sb.WriteByte('\n')
}

func tokenString(tokens []any, idx int) string {
	if idx >= len(tokens) {
		return fmt.Sprintf("#%d (invalid)", idx)
	}
	switch t := tokens[idx].(type) {
	case reflect.Type:
		return t.String()
	case *MethodRef:
		return t.String()
	default:
		return fmt.Sprintf("#%d", idx)
	}
}

package compiler

// Binary-operator precedence, low to high: comparison < additive <
// multiplicative. Assignment never enters the operator stack; L_PAREN is the
// grouping sentinel and compares lower than everything.
func precedence(tt TokenType) int {
	switch tt {
	case EQ, NEQ, LT, GT, LE, GE:
		return 1
	case PLUS, MINUS:
		return 2
	case MUL, DIV:
		return 3
	default:
		return 0
	}
}

func isBinaryOperator(tt TokenType) bool {
	switch tt {
	case PLUS, MINUS, MUL, DIV, EQ, NEQ, LT, GT, LE, GE:
		return true
	}
	return false
}

// operatorInstructions lowers one binary operator for the given operand
// type. Comparisons go through cmp, which pushes the sign of lhs-rhs; setLt
// and setGt reduce it to 0/1 and not flips it.
func operatorInstructions(op TokenType, t Type) []Instruction {
	cmp := OpCmpi
	if t == TypeDouble {
		cmp = OpCmpf
	}

	switch op {
	case PLUS:
		if t == TypeDouble {
			return []Instruction{{Op: OpAddf}}
		}
		return []Instruction{{Op: OpAdd}}
	case MINUS:
		if t == TypeDouble {
			return []Instruction{{Op: OpSubf}}
		}
		return []Instruction{{Op: OpSub}}
	case MUL:
		if t == TypeDouble {
			return []Instruction{{Op: OpMulf}}
		}
		return []Instruction{{Op: OpMul}}
	case DIV:
		if t == TypeDouble {
			return []Instruction{{Op: OpDivf}}
		}
		return []Instruction{{Op: OpDiv}}
	case EQ:
		return []Instruction{{Op: cmp}, {Op: OpNot}}
	case NEQ:
		return []Instruction{{Op: cmp}}
	case LT:
		return []Instruction{{Op: cmp}, {Op: OpSetLt}}
	case GT:
		return []Instruction{{Op: cmp}, {Op: OpSetGt}}
	case LE:
		return []Instruction{{Op: cmp}, {Op: OpSetGt}, {Op: OpNot}}
	case GE:
		return []Instruction{{Op: cmp}, {Op: OpSetLt}, {Op: OpNot}}
	}
	return nil
}

// pushOperator resolves precedence against the operator stack before
// pushing op: every stacked operator that binds at least as tightly is
// emitted first (left associativity).
func (a *Analyzer) pushOperator(op TokenType, t Type) {
	for len(a.opStack) > 0 {
		top := a.opStack[len(a.opStack)-1]
		if top == L_PAREN || precedence(top) < precedence(op) {
			break
		}
		a.opStack = a.opStack[:len(a.opStack)-1]
		a.emitAll(operatorInstructions(top, t))
	}
	a.opStack = append(a.opStack, op)
}

// drainOperators pops and emits stacked operators down to the nearest
// grouping sentinel (exclusive) or the bottom of the stack, specialized for
// the type that dominated the expression.
func (a *Analyzer) drainOperators(t Type) {
	for len(a.opStack) > 0 {
		top := a.opStack[len(a.opStack)-1]
		if top == L_PAREN {
			break
		}
		a.opStack = a.opStack[:len(a.opStack)-1]
		a.emitAll(operatorInstructions(top, t))
	}
}

// pushGroup opens a grouping scope on the operator stack.
func (a *Analyzer) pushGroup() {
	a.opStack = append(a.opStack, L_PAREN)
}

// popGroup closes the innermost grouping scope. The caller must have drained
// down to the sentinel first.
func (a *Analyzer) popGroup() {
	a.opStack = a.opStack[:len(a.opStack)-1]
}

package compiler

// Analyzer fuses recursive-descent parsing, symbol-table management, type
// checking and bytecode emission into a single pass. There is no AST: every
// production appends instructions directly to the list of the function being
// analyzed, or to the global-initializer list when at level 0.
type Analyzer struct {
	tokens *TokenBuffer

	syms   SymbolTable
	params []Parameter // parameters of the function being analyzed

	functions map[string]*FunctionDef
	ordered   []*FunctionDef // user functions in declaration order, IDs 1..N
	globals   []GlobalDef

	globalInit []Instruction // global initializers, prepended to _start
	code       []Instruction // body of the function being analyzed

	opStack []TokenType

	level      int // 0 is global; each block increments
	localSlots int
	paramBase  int // 1 when the current function returns a value, else 0
	returnType Type
	haveReturn bool
	nextFnID   int
}

// loopCtx tracks the innermost enclosing while loop: where its condition
// starts, and the break branches waiting to be patched past the loop end.
type loopCtx struct {
	top    int
	breaks []int
}

func NewAnalyzer(tokens *TokenBuffer) *Analyzer {
	return &Analyzer{
		tokens:    tokens,
		functions: make(map[string]*FunctionDef),
		nextFnID:  1, // 0 is reserved for _start
	}
}

// emit appends one instruction to the current target: the global-initializer
// list at level 0, the current function body otherwise.
func (a *Analyzer) emit(ins Instruction) {
	if a.level == 0 {
		a.globalInit = append(a.globalInit, ins)
	} else {
		a.code = append(a.code, ins)
	}
}

func (a *Analyzer) emitAll(ins []Instruction) {
	for _, i := range ins {
		a.emit(i)
	}
}

func (a *Analyzer) addGlobal(g GlobalDef) int {
	a.globals = append(a.globals, g)
	return len(a.globals) - 1
}

func (a *Analyzer) paramNamed(name string) (int, *Parameter) {
	for i := range a.params {
		if a.params[i].Name == name {
			return i, &a.params[i]
		}
	}
	return 0, nil
}

func isExprStart(tt TokenType) bool {
	switch tt {
	case MINUS, IDENT, L_PAREN, UINT_LITERAL, DOUBLE_LITERAL, CHAR_LITERAL, STRING_LITERAL:
		return true
	}
	return false
}

// Analyze consumes the whole token stream and returns the compiled program:
// the global table and the function list with the synthetic _start first.
func (a *Analyzer) Analyze() (*Program, error) {
	for {
		tok, err := a.tokens.Peek()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case FN_KW:
			if err := a.analyzeFunction(); err != nil {
				return nil, err
			}
		case LET_KW, CONST_KW:
			if err := a.analyzeDeclStmt(); err != nil {
				return nil, err
			}
		case EOF:
			return a.synthesizeStart(tok)
		default:
			return nil, newError(InvalidInput, tok.Start)
		}
	}
}

// synthesizeStart builds the _start function: global initializers first,
// then the main invocation.
func (a *Analyzer) synthesizeStart(eof Token) (*Program, error) {
	main := a.functions["main"]
	if main == nil {
		return nil, newError(NoMain, eof.Start)
	}

	nameIdx := a.addGlobal(GlobalDef{Name: "_start", IsConst: true, Bytes: []byte("_start")})

	code := make([]Instruction, 0, len(a.globalInit)+4)
	code = append(code, a.globalInit...)
	code = append(code,
		Instruction{Op: OpStackalloc, X: int64(main.ReturnSlots)},
		Instruction{Op: OpCall, X: int64(main.ID)})
	if main.ReturnSlots > 0 {
		code = append(code, Instruction{Op: OpPopn, X: 1})
	}
	code = append(code, Instruction{Op: OpRet})

	start := &FunctionDef{
		Name:         "_start",
		NameGlobal:   nameIdx,
		ID:           0,
		ReturnType:   TypeVoid,
		Instructions: code,
	}

	functions := make([]*FunctionDef, 0, len(a.ordered)+1)
	functions = append(functions, start)
	functions = append(functions, a.ordered...)
	return &Program{Globals: a.globals, Functions: functions}, nil
}

// analyzeFunction handles
//
//	function ::= 'fn' IDENT '(' param_list? ')' '->' ty block_stmt
//
// The FunctionDef is registered before the body is analyzed, so the body can
// call the function by name and a redefinition is caught early.
func (a *Analyzer) analyzeFunction() error {
	if _, err := a.tokens.Expect(FN_KW); err != nil {
		return err
	}
	name, err := a.tokens.Expect(IDENT)
	if err != nil {
		return err
	}
	if a.functions[name.Text] != nil || a.syms.DeclaredAt(name.Text, 0) {
		return newError(DuplicateDeclaration, name.Start)
	}

	a.params = nil
	a.localSlots = 0
	a.haveReturn = false
	a.code = nil

	if _, err := a.tokens.Expect(L_PAREN); err != nil {
		return err
	}
	if closed, err := a.tokens.Check(R_PAREN); err != nil {
		return err
	} else if !closed {
		if err := a.analyzeParamList(); err != nil {
			return err
		}
	}
	if _, err := a.tokens.Expect(R_PAREN); err != nil {
		return err
	}
	if _, err := a.tokens.Expect(ARROW); err != nil {
		return err
	}
	ret, _, err := a.analyzeTy()
	if err != nil {
		return err
	}

	a.returnType = ret
	retSlots := 0
	if ret != TypeVoid {
		retSlots = 1
	}
	a.paramBase = retSlots

	nameIdx := a.addGlobal(GlobalDef{Name: name.Text, IsConst: true, Bytes: []byte(name.Text)})
	fn := &FunctionDef{
		Name:        name.Text,
		NameGlobal:  nameIdx,
		ID:          a.nextFnID,
		ReturnType:  ret,
		ReturnSlots: retSlots,
		Params:      a.params,
	}
	a.nextFnID++
	a.functions[name.Text] = fn
	a.ordered = append(a.ordered, fn)

	if err := a.analyzeBlockStmt(nil); err != nil {
		return err
	}

	if ret != TypeVoid && !a.haveReturn {
		return newError(NotValidReturn, name.End)
	}
	if ret == TypeVoid {
		a.code = append(a.code, Instruction{Op: OpRet})
	}

	fn.LocalSlots = a.localSlots
	fn.Instructions = a.code
	a.params = nil
	return nil
}

// analyzeParamList handles
//
//	param_list ::= param (',' param)*
//	param      ::= 'const'? IDENT ':' ty
func (a *Analyzer) analyzeParamList() error {
	for {
		if _, err := a.tokens.Accept(CONST_KW); err != nil {
			return err
		}
		name, err := a.tokens.Expect(IDENT)
		if err != nil {
			return err
		}
		if _, p := a.paramNamed(name.Text); p != nil {
			return newError(DuplicateDeclaration, name.Start)
		}
		if _, err := a.tokens.Expect(COLON); err != nil {
			return err
		}
		ty, _, err := a.analyzeTy()
		if err != nil {
			return err
		}
		a.params = append(a.params, Parameter{Name: name.Text, Type: ty})

		more, err := a.tokens.Accept(COMMA)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// analyzeTy handles ty ::= IDENT where the value names one of the three
// types. Type names are deliberately not keywords.
func (a *Analyzer) analyzeTy() (Type, Token, error) {
	tok, err := a.tokens.Expect(IDENT)
	if err != nil {
		return TypeVoid, Token{}, err
	}
	switch tok.Text {
	case "int":
		return TypeInt, tok, nil
	case "double":
		return TypeDouble, tok, nil
	case "void":
		return TypeVoid, tok, nil
	}
	return TypeVoid, tok, newError(InvalidInput, tok.Start)
}

// analyzeBlockStmt handles block_stmt ::= '{' stmt* '}'. Symbols declared at
// the new level are dropped when the block closes.
func (a *Analyzer) analyzeBlockStmt(loop *loopCtx) error {
	if _, err := a.tokens.Expect(L_BRACE); err != nil {
		return err
	}
	a.level++
	for {
		closed, err := a.tokens.Check(R_BRACE)
		if err != nil {
			return err
		}
		if closed {
			break
		}
		if err := a.analyzeStmt(loop); err != nil {
			return err
		}
	}
	if _, err := a.tokens.Expect(R_BRACE); err != nil {
		return err
	}
	a.syms.CloseScope(a.level)
	a.level--
	return nil
}

func (a *Analyzer) analyzeStmt(loop *loopCtx) error {
	tok, err := a.tokens.Peek()
	if err != nil {
		return err
	}
	switch {
	case isExprStart(tok.Type):
		t, err := a.analyzeExpression()
		if err != nil {
			return err
		}
		a.drainOperators(t)
		_, err = a.tokens.Expect(SEMICOLON)
		return err
	case tok.Type == LET_KW || tok.Type == CONST_KW:
		return a.analyzeDeclStmt()
	case tok.Type == IF_KW:
		return a.analyzeIfStmt(loop)
	case tok.Type == WHILE_KW:
		return a.analyzeWhileStmt()
	case tok.Type == BREAK_KW:
		return a.analyzeBreakStmt(loop)
	case tok.Type == CONTINUE_KW:
		return a.analyzeContinueStmt(loop)
	case tok.Type == RETURN_KW:
		return a.analyzeReturnStmt()
	case tok.Type == L_BRACE:
		return a.analyzeBlockStmt(loop)
	case tok.Type == SEMICOLON:
		_, err := a.tokens.Next()
		return err
	}
	return newError(InvalidInput, tok.Start)
}

// analyzeDeclStmt handles
//
//	decl_stmt ::= ('let' | 'const') IDENT ':' ty ('=' expr)? ';'
//
// A const requires an initializer. At level 0 the declaration claims a
// global slot and its initializer is emitted into the _start prelude; inside
// a function it claims the next local slot.
func (a *Analyzer) analyzeDeclStmt() error {
	kw, err := a.tokens.Next()
	if err != nil {
		return err
	}
	isConst := kw.Type == CONST_KW

	name, err := a.tokens.Expect(IDENT)
	if err != nil {
		return err
	}
	_, clashParam := a.paramNamed(name.Text)
	if a.syms.DeclaredAt(name.Text, a.level) || clashParam != nil || a.functions[name.Text] != nil {
		return newError(DuplicateDeclaration, name.Start)
	}

	if _, err := a.tokens.Expect(COLON); err != nil {
		return err
	}
	ty, _, err := a.analyzeTy()
	if err != nil {
		return err
	}
	if ty != TypeInt && ty != TypeDouble {
		return newError(NotValidReturn, name.Start)
	}

	hasInit := false
	if isConst {
		if _, err := a.tokens.Expect(ASSIGN); err != nil {
			return err
		}
		hasInit = true
	} else {
		hasInit, err = a.tokens.Accept(ASSIGN)
		if err != nil {
			return err
		}
	}

	offset := a.localSlots
	if a.level == 0 {
		offset = len(a.globals)
	}
	a.syms.Declare(Symbol{
		Name:        name.Text,
		Type:        ty,
		Level:       a.level,
		Offset:      offset,
		IsConst:     isConst,
		Initialized: hasInit,
	})
	if a.level == 0 {
		var storage []byte
		if hasInit {
			// slot storage, written by the _start prelude
			storage = make([]byte, 8)
		}
		a.addGlobal(GlobalDef{Name: name.Text, IsConst: isConst, Bytes: storage})
	}

	if hasInit {
		if a.level == 0 {
			a.emit(Instruction{Op: OpGloba, X: int64(offset)})
		} else {
			a.emit(Instruction{Op: OpLoca, X: int64(offset)})
		}
		t, err := a.analyzeExpression()
		if err != nil {
			return err
		}
		if t != ty {
			return newError(InvalidAssignment, name.Start)
		}
		a.drainOperators(t)
		a.emit(Instruction{Op: OpStore})
	}

	if _, err := a.tokens.Expect(SEMICOLON); err != nil {
		return err
	}
	if a.level != 0 {
		a.localSlots++
	}
	return nil
}

// analyzeIfStmt handles
//
//	if_stmt ::= 'if' expr block_stmt ('else' (if_stmt | block_stmt))?
//
// Layout: brTrue 1 skips the exit branch when the condition holds; the exit
// branch is back-patched past the then-block, whose own trailing branch is
// back-patched past the whole else chain.
func (a *Analyzer) analyzeIfStmt(loop *loopCtx) error {
	if _, err := a.tokens.Expect(IF_KW); err != nil {
		return err
	}
	condType, err := a.analyzeExpression()
	if err != nil {
		return err
	}
	a.drainOperators(condType)

	a.code = append(a.code, Instruction{Op: OpBrTrue, X: 1})
	skipThen := len(a.code)
	a.code = append(a.code, Instruction{Op: OpBr})
	thenStart := len(a.code)

	if err := a.analyzeBlockStmt(loop); err != nil {
		return err
	}

	skipElse := len(a.code)
	a.code = append(a.code, Instruction{Op: OpBr})
	elseStart := len(a.code)
	a.code[skipThen].X = int64(len(a.code) - thenStart)

	hasElse, err := a.tokens.Accept(ELSE_KW)
	if err != nil {
		return err
	}
	if hasElse {
		elif, err := a.tokens.Check(IF_KW)
		if err != nil {
			return err
		}
		if elif {
			if err := a.analyzeIfStmt(loop); err != nil {
				return err
			}
		} else {
			if err := a.analyzeBlockStmt(loop); err != nil {
				return err
			}
			a.code = append(a.code, Instruction{Op: OpBr})
		}
	}
	a.code[skipElse].X = int64(len(a.code) - elseStart)
	return nil
}

// analyzeWhileStmt handles while_stmt ::= 'while' expr block_stmt. Branch
// displacements are relative to the instruction after the branch. Breaks
// are forward-patched past the loop once its extent is known.
func (a *Analyzer) analyzeWhileStmt() error {
	if _, err := a.tokens.Expect(WHILE_KW); err != nil {
		return err
	}
	top := len(a.code)

	condType, err := a.analyzeExpression()
	if err != nil {
		return err
	}
	a.drainOperators(condType)

	a.code = append(a.code, Instruction{Op: OpBrTrue, X: 1})
	exit := len(a.code)
	a.code = append(a.code, Instruction{Op: OpBr})
	bodyStart := len(a.code)

	inner := &loopCtx{top: top}
	if err := a.analyzeBlockStmt(inner); err != nil {
		return err
	}

	a.code = append(a.code, Instruction{Op: OpBr, X: int64(top - len(a.code) - 1)})
	end := len(a.code)
	a.code[exit].X = int64(end - bodyStart)
	for _, b := range inner.breaks {
		a.code[b].X = int64(end - b - 1)
	}
	return nil
}

func (a *Analyzer) analyzeBreakStmt(loop *loopCtx) error {
	tok, err := a.tokens.Expect(BREAK_KW)
	if err != nil {
		return err
	}
	if _, err := a.tokens.Expect(SEMICOLON); err != nil {
		return err
	}
	if loop == nil {
		return newError(NotWhile, tok.Start)
	}
	loop.breaks = append(loop.breaks, len(a.code))
	a.code = append(a.code, Instruction{Op: OpBr})
	return nil
}

func (a *Analyzer) analyzeContinueStmt(loop *loopCtx) error {
	tok, err := a.tokens.Expect(CONTINUE_KW)
	if err != nil {
		return err
	}
	if _, err := a.tokens.Expect(SEMICOLON); err != nil {
		return err
	}
	if loop == nil {
		return newError(NotWhile, tok.Start)
	}
	a.code = append(a.code, Instruction{Op: OpBr, X: int64(loop.top - len(a.code) - 1)})
	return nil
}

// analyzeReturnStmt handles return_stmt ::= 'return' expr? ';'. A value is
// stored through arga 0, the slot reserved for the return value.
func (a *Analyzer) analyzeReturnStmt() error {
	if _, err := a.tokens.Expect(RETURN_KW); err != nil {
		return err
	}
	tok, err := a.tokens.Peek()
	if err != nil {
		return err
	}
	if isExprStart(tok.Type) {
		if a.returnType == TypeVoid {
			return newError(NotValidReturn, tok.Start)
		}
		a.code = append(a.code, Instruction{Op: OpArga, X: 0})
		t, err := a.analyzeExpression()
		if err != nil {
			return err
		}
		if t != a.returnType {
			return newError(NotValidReturn, tok.Start)
		}
		a.drainOperators(t)
		a.code = append(a.code, Instruction{Op: OpStore})
		a.haveReturn = true
	}
	if _, err := a.tokens.Expect(SEMICOLON); err != nil {
		return err
	}
	a.emit(Instruction{Op: OpRet})
	return nil
}

// analyzeExpression handles
//
//	expr ::= unary_or_primary (bin_op expr | 'as' ty)*
//
// Binary operators are resolved against the shared operator stack; the
// caller decides when to drain. The returned type is the operand type that
// dominated the expression.
func (a *Analyzer) analyzeExpression() (Type, error) {
	tok, err := a.tokens.Peek()
	if err != nil {
		return TypeVoid, err
	}

	var t Type
	switch {
	case tok.Type == MINUS:
		t, err = a.analyzeNegateExpression()
	case tok.Type == IDENT:
		t, err = a.analyzeIdentExpression()
	case tok.Type == L_PAREN:
		t, err = a.analyzeGroupExpression()
	case isLiteral(tok.Type):
		t, err = a.analyzeLiteralExpression()
	default:
		return TypeVoid, newError(InvalidInput, tok.Start)
	}
	if err != nil {
		return TypeVoid, err
	}

	for {
		tok, err := a.tokens.Peek()
		if err != nil {
			return TypeVoid, err
		}
		switch {
		case isBinaryOperator(tok.Type):
			op, err := a.tokens.Next()
			if err != nil {
				return TypeVoid, err
			}
			a.pushOperator(op.Type, t)
			t2, err := a.analyzeExpression()
			if err != nil {
				return TypeVoid, err
			}
			if t2 != t {
				return TypeVoid, newError(TypeError, op.Start)
			}
		case tok.Type == AS_KW:
			if t != TypeInt && t != TypeDouble {
				return TypeVoid, newError(TypeError, tok.Start)
			}
			if _, err := a.tokens.Next(); err != nil {
				return TypeVoid, err
			}
			target, tyTok, err := a.analyzeTy()
			if err != nil {
				return TypeVoid, err
			}
			if target == TypeVoid {
				return TypeVoid, newError(TypeError, tyTok.Start)
			}
			if target != t {
				if t == TypeInt {
					a.emit(Instruction{Op: OpItof})
				} else {
					a.emit(Instruction{Op: OpFtoi})
				}
				t = target
			}
		default:
			return t, nil
		}
	}
}

func isLiteral(tt TokenType) bool {
	switch tt {
	case UINT_LITERAL, DOUBLE_LITERAL, CHAR_LITERAL, STRING_LITERAL:
		return true
	}
	return false
}

func (a *Analyzer) analyzeNegateExpression() (Type, error) {
	if _, err := a.tokens.Expect(MINUS); err != nil {
		return TypeVoid, err
	}
	operand, err := a.tokens.Peek()
	if err != nil {
		return TypeVoid, err
	}
	t, err := a.analyzeExpression()
	if err != nil {
		return TypeVoid, err
	}
	switch t {
	case TypeInt:
		a.emit(Instruction{Op: OpNegi})
	case TypeDouble:
		a.emit(Instruction{Op: OpNegf})
	default:
		return TypeVoid, newError(TypeError, operand.Start)
	}
	return t, nil
}

// analyzeLiteralExpression pushes a literal. A string literal becomes a
// const global and its index is pushed; its type is int (address of
// global).
func (a *Analyzer) analyzeLiteralExpression() (Type, error) {
	tok, err := a.tokens.Next()
	if err != nil {
		return TypeVoid, err
	}
	switch tok.Type {
	case UINT_LITERAL, CHAR_LITERAL:
		a.emit(Instruction{Op: OpPush, X: tok.Int})
		return TypeInt, nil
	case DOUBLE_LITERAL:
		a.emit(Instruction{Op: OpPush, X: tok.Int})
		return TypeDouble, nil
	case STRING_LITERAL:
		idx := a.addGlobal(GlobalDef{Name: tok.Text, IsConst: true, Bytes: []byte(tok.Text)})
		a.emit(Instruction{Op: OpPush, X: int64(idx)})
		return TypeInt, nil
	}
	return TypeVoid, newError(InvalidInput, tok.Start)
}

func (a *Analyzer) analyzeGroupExpression() (Type, error) {
	if _, err := a.tokens.Expect(L_PAREN); err != nil {
		return TypeVoid, err
	}
	a.pushGroup()
	t, err := a.analyzeExpression()
	if err != nil {
		return TypeVoid, err
	}
	if _, err := a.tokens.Expect(R_PAREN); err != nil {
		return TypeVoid, err
	}
	a.drainOperators(t)
	a.popGroup()
	return t, nil
}

// analyzeIdentExpression handles the three IDENT-led forms: assignment,
// call, and plain variable reference.
func (a *Analyzer) analyzeIdentExpression() (Type, error) {
	name, err := a.tokens.Expect(IDENT)
	if err != nil {
		return TypeVoid, err
	}
	if assign, err := a.tokens.Check(ASSIGN); err != nil {
		return TypeVoid, err
	} else if assign {
		return a.analyzeAssignExpression(name)
	}
	if call, err := a.tokens.Check(L_PAREN); err != nil {
		return TypeVoid, err
	} else if call {
		return a.analyzeCallExpression(name)
	}
	return a.analyzeVarExpression(name)
}

// resolve finds the addressable entity behind an identifier with the
// resolution order local, parameter, global, and emits its address opcode.
// The returned symbol is nil for parameters.
func (a *Analyzer) resolve(name Token) (*Symbol, Type, error) {
	if sym := a.syms.LookupLocal(name.Text); sym != nil {
		a.emit(Instruction{Op: OpLoca, X: int64(sym.Offset)})
		return sym, sym.Type, nil
	}
	if idx, p := a.paramNamed(name.Text); p != nil {
		a.emit(Instruction{Op: OpArga, X: int64(a.paramBase + idx)})
		return nil, p.Type, nil
	}
	if sym := a.syms.LookupGlobal(name.Text); sym != nil {
		a.emit(Instruction{Op: OpGloba, X: int64(sym.Offset)})
		return sym, sym.Type, nil
	}
	return nil, TypeVoid, newError(NotDeclared, name.Start)
}

func (a *Analyzer) analyzeAssignExpression(name Token) (Type, error) {
	if _, err := a.tokens.Expect(ASSIGN); err != nil {
		return TypeVoid, err
	}
	sym, lhsType, err := a.resolve(name)
	if err != nil {
		return TypeVoid, err
	}
	if lhsType == TypeVoid {
		return TypeVoid, newError(InvalidAssignment, name.Start)
	}
	if sym != nil && sym.IsConst {
		return TypeVoid, newError(AssignToConstant, name.Start)
	}

	t, err := a.analyzeExpression()
	if err != nil {
		return TypeVoid, err
	}
	if t != lhsType {
		return TypeVoid, newError(InvalidAssignment, name.Start)
	}
	a.drainOperators(t)
	a.emit(Instruction{Op: OpStore})
	if sym != nil {
		sym.Initialized = true
	}
	return TypeVoid, nil
}

func (a *Analyzer) analyzeVarExpression(name Token) (Type, error) {
	_, t, err := a.resolve(name)
	if err != nil {
		return TypeVoid, err
	}
	a.emit(Instruction{Op: OpLoad})
	return t, nil
}

// analyzeCallExpression handles IDENT '(' arg_list? ')'. A library name
// resolves to callname with a fresh name global; anything else must be a
// previously declared function and resolves to call by id. The stackalloc
// for the return slot is emitted before the arguments.
func (a *Analyzer) analyzeCallExpression(name Token) (Type, error) {
	if _, err := a.tokens.Expect(L_PAREN); err != nil {
		return TypeVoid, err
	}
	a.pushGroup()

	var (
		want []Type
		ret  Type
		fn   *FunctionDef
	)
	if sig, ok := libraryFunctions[name.Text]; ok {
		want, ret = sig.Params, sig.Return
	} else if fn = a.functions[name.Text]; fn != nil {
		ret = fn.ReturnType
		for _, p := range fn.Params {
			want = append(want, p.Type)
		}
	} else {
		return TypeVoid, newError(NotDeclared, name.Start)
	}

	if ret != TypeVoid {
		a.emit(Instruction{Op: OpStackalloc, X: 1})
	} else {
		a.emit(Instruction{Op: OpStackalloc, X: 0})
	}

	var got []Type
	closed, err := a.tokens.Check(R_PAREN)
	if err != nil {
		return TypeVoid, err
	}
	for !closed {
		t, err := a.analyzeExpression()
		if err != nil {
			return TypeVoid, err
		}
		a.drainOperators(t)
		got = append(got, t)

		more, err := a.tokens.Accept(COMMA)
		if err != nil {
			return TypeVoid, err
		}
		if !more {
			break
		}
	}
	if _, err := a.tokens.Expect(R_PAREN); err != nil {
		return TypeVoid, err
	}
	a.popGroup()

	if len(got) != len(want) {
		return TypeVoid, newError(ParamError, name.Start)
	}
	for i := range got {
		if got[i] != want[i] {
			return TypeVoid, newError(ParamError, name.Start)
		}
	}

	if fn != nil {
		a.emit(Instruction{Op: OpCall, X: int64(fn.ID)})
	} else {
		idx := a.addGlobal(GlobalDef{Name: name.Text, IsConst: true, Bytes: []byte(name.Text)})
		a.emit(Instruction{Op: OpCallname, X: int64(idx)})
	}
	return ret, nil
}

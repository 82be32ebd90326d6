package compiler

import (
	"reflect"
	"testing"
)

func compileSrc(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := Compile(src)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return prog
}

func compileErr(t *testing.T, src string) *CompileError {
	t.Helper()
	_, err := Compile(src)
	if err == nil {
		t.Fatal("expected a compile error")
	}
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("expected *CompileError, got %T: %v", err, err)
	}
	return ce
}

func fnByName(t *testing.T, prog *Program, name string) *FunctionDef {
	t.Helper()
	for _, fn := range prog.Functions {
		if fn.Name == name {
			return fn
		}
	}
	t.Fatalf("function %q not emitted", name)
	return nil
}

func checkCode(t *testing.T, fn *FunctionDef, want []Instruction) {
	t.Helper()
	if !reflect.DeepEqual(fn.Instructions, want) {
		t.Errorf("fn %s: instruction mismatch\ngot:  %v\nwant: %v", fn.Name, fn.Instructions, want)
	}
}

func TestMinimalVoidMain(t *testing.T) {
	prog := compileSrc(t, "fn main() -> void {}")

	if len(prog.Functions) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(prog.Functions))
	}
	start := fnByName(t, prog, "_start")
	main := fnByName(t, prog, "main")
	if start.ID != 0 || main.ID != 1 {
		t.Errorf("ids: _start=%d main=%d", start.ID, main.ID)
	}
	checkCode(t, start, []Instruction{
		{Op: OpStackalloc, X: 0},
		{Op: OpCall, X: 1},
		{Op: OpRet},
	})
	checkCode(t, main, []Instruction{{Op: OpRet}})

	if len(prog.Globals) != 2 {
		t.Fatalf("expected 2 globals, got %d", len(prog.Globals))
	}
	if prog.Globals[0].Name != "main" || prog.Globals[1].Name != "_start" {
		t.Errorf("global order: %q, %q", prog.Globals[0].Name, prog.Globals[1].Name)
	}
}

func TestIntMainWithReturn(t *testing.T) {
	prog := compileSrc(t, "fn main() -> int { return 0; }")

	checkCode(t, fnByName(t, prog, "main"), []Instruction{
		{Op: OpArga, X: 0},
		{Op: OpPush, X: 0},
		{Op: OpStore},
		{Op: OpRet},
	})
	checkCode(t, fnByName(t, prog, "_start"), []Instruction{
		{Op: OpStackalloc, X: 1},
		{Op: OpCall, X: 1},
		{Op: OpPopn, X: 1},
		{Op: OpRet},
	})
}

func TestLocalArithmeticPrecedence(t *testing.T) {
	prog := compileSrc(t, `
fn main() -> int {
    let x: int = 1 + 2 * 3;
    return x;
}`)

	main := fnByName(t, prog, "main")
	checkCode(t, main, []Instruction{
		{Op: OpLoca, X: 0},
		{Op: OpPush, X: 1},
		{Op: OpPush, X: 2},
		{Op: OpPush, X: 3},
		{Op: OpMul},
		{Op: OpAdd},
		{Op: OpStore},
		{Op: OpArga, X: 0},
		{Op: OpLoca, X: 0},
		{Op: OpLoad},
		{Op: OpStore},
		{Op: OpRet},
	})
	if main.LocalSlots != 1 {
		t.Errorf("expected 1 local slot, got %d", main.LocalSlots)
	}
}

func TestGroupingOverridesPrecedence(t *testing.T) {
	prog := compileSrc(t, `
fn main() -> int {
    return (1 + 2) * 3;
}`)

	checkCode(t, fnByName(t, prog, "main"), []Instruction{
		{Op: OpArga, X: 0},
		{Op: OpPush, X: 1},
		{Op: OpPush, X: 2},
		{Op: OpAdd},
		{Op: OpPush, X: 3},
		{Op: OpMul},
		{Op: OpStore},
		{Op: OpRet},
	})
}

func TestStringLiteralAndLibraryCall(t *testing.T) {
	prog := compileSrc(t, `fn main() -> void { putstr("hi"); }`)

	names := []string{"main", "hi", "putstr", "_start"}
	if len(prog.Globals) != len(names) {
		t.Fatalf("expected %d globals, got %d", len(names), len(prog.Globals))
	}
	for i, want := range names {
		if prog.Globals[i].Name != want {
			t.Errorf("global %d: got %q, want %q", i, prog.Globals[i].Name, want)
		}
		if !prog.Globals[i].IsConst {
			t.Errorf("global %d (%q): expected const", i, want)
		}
	}
	if string(prog.Globals[1].Bytes) != "hi" {
		t.Errorf("string global bytes: %q", prog.Globals[1].Bytes)
	}

	checkCode(t, fnByName(t, prog, "main"), []Instruction{
		{Op: OpStackalloc, X: 0},
		{Op: OpPush, X: 1},
		{Op: OpCallname, X: 2},
		{Op: OpRet},
	})
}

func TestAssignToConstantPosition(t *testing.T) {
	ce := compileErr(t, `fn main() -> void {
    const x: int = 1;
    x = 2;
}`)
	if ce.Code != AssignToConstant {
		t.Fatalf("got %v, want AssignToConstant", ce.Code)
	}
	if ce.Pos != (Pos{3, 5}) {
		t.Errorf("got position %v, want (3,5)", ce.Pos)
	}
}

func TestWhileWithBreak(t *testing.T) {
	prog := compileSrc(t, `
fn main() -> void {
    while 1 == 1 { break; }
}`)

	main := fnByName(t, prog, "main")
	checkCode(t, main, []Instruction{
		{Op: OpPush, X: 1},
		{Op: OpPush, X: 1},
		{Op: OpCmpi},
		{Op: OpNot},
		{Op: OpBrTrue, X: 1},
		{Op: OpBr, X: 2},  // condition false: exit the loop
		{Op: OpBr, X: 1},  // break: forward past the loop
		{Op: OpBr, X: -8}, // back edge to the condition
		{Op: OpRet},
	})

	// the back edge must land exactly on the condition start
	back := 7
	if target := back + 1 + int(main.Instructions[back].X); target != 0 {
		t.Errorf("back edge lands at %d, want 0", target)
	}
	// the break must land on the first instruction after the loop
	brk := 6
	if target := brk + 1 + int(main.Instructions[brk].X); target != 8 {
		t.Errorf("break lands at %d, want 8", target)
	}
}

func TestWhileWithContinue(t *testing.T) {
	prog := compileSrc(t, `
fn main() -> void {
    let i: int = 0;
    while i < 10 {
        i = i + 1;
        continue;
    }
}`)

	main := fnByName(t, prog, "main")
	const top = 3 // after the i declaration
	var continues []int
	for i, ins := range main.Instructions {
		if ins.Op == OpBr && int64(i)+1+ins.X == top {
			continues = append(continues, i)
		}
	}
	// the continue and the loop back edge both target the condition
	if len(continues) != 2 {
		t.Errorf("expected 2 branches to the condition, got %v", continues)
	}
}

func TestIfElseChain(t *testing.T) {
	prog := compileSrc(t, `
fn main() -> int {
    let x: int = 0;
    if x == 1 {
        x = 10;
    } else if x == 2 {
        x = 20;
    } else {
        x = 30;
    }
    return x;
}`)

	main := fnByName(t, prog, "main")
	for i, ins := range main.Instructions {
		switch ins.Op {
		case OpBr, OpBrTrue, OpBrFalse:
			target := i + 1 + int(ins.X)
			if target < 0 || target > len(main.Instructions) {
				t.Errorf("instruction %d (%v) targets %d, out of range", i, ins, target)
			}
		}
	}
}

func TestGlobalInitializersRunBeforeMain(t *testing.T) {
	prog := compileSrc(t, `
let g: int = 5;
fn main() -> int { return g; }`)

	if prog.Globals[0].Name != "g" || prog.Globals[0].IsConst {
		t.Fatalf("global 0: %+v", prog.Globals[0])
	}
	if len(prog.Globals[0].Bytes) != 8 {
		t.Errorf("initialized global storage: got %d bytes, want 8", len(prog.Globals[0].Bytes))
	}

	checkCode(t, fnByName(t, prog, "_start"), []Instruction{
		{Op: OpGloba, X: 0},
		{Op: OpPush, X: 5},
		{Op: OpStore},
		{Op: OpStackalloc, X: 1},
		{Op: OpCall, X: 1},
		{Op: OpPopn, X: 1},
		{Op: OpRet},
	})
	checkCode(t, fnByName(t, prog, "main"), []Instruction{
		{Op: OpArga, X: 0},
		{Op: OpGloba, X: 0},
		{Op: OpLoad},
		{Op: OpStore},
		{Op: OpRet},
	})
}

func TestUninitializedGlobalHasNoBytes(t *testing.T) {
	prog := compileSrc(t, `
let g: int;
fn main() -> void {}`)

	if len(prog.Globals[0].Bytes) != 0 {
		t.Errorf("uninitialized global: got %d bytes, want 0", len(prog.Globals[0].Bytes))
	}
}

func TestParametersAddressedPastReturnSlot(t *testing.T) {
	prog := compileSrc(t, `
fn add(a: int, b: int) -> int {
    return a + b;
}
fn main() -> int {
    return add(1, 2);
}`)

	checkCode(t, fnByName(t, prog, "add"), []Instruction{
		{Op: OpArga, X: 0},
		{Op: OpArga, X: 1}, // a: slot 0 holds the return value
		{Op: OpLoad},
		{Op: OpArga, X: 2}, // b
		{Op: OpLoad},
		{Op: OpAdd},
		{Op: OpStore},
		{Op: OpRet},
	})
	checkCode(t, fnByName(t, prog, "main"), []Instruction{
		{Op: OpArga, X: 0},
		{Op: OpStackalloc, X: 1},
		{Op: OpPush, X: 1},
		{Op: OpPush, X: 2},
		{Op: OpCall, X: 1},
		{Op: OpStore},
		{Op: OpRet},
	})
}

func TestVoidFunctionParamsStartAtZero(t *testing.T) {
	prog := compileSrc(t, `
fn show(v: int) -> void {
    putint(v);
}
fn main() -> void { show(7); }`)

	show := fnByName(t, prog, "show")
	want := []Instruction{
		{Op: OpStackalloc, X: 0},
		{Op: OpArga, X: 0}, // no return slot, so v sits at 0
		{Op: OpLoad},
		{Op: OpCallname, X: 1},
		{Op: OpRet},
	}
	checkCode(t, show, want)
}

func TestDoubleArithmetic(t *testing.T) {
	prog := compileSrc(t, `
fn main() -> double {
    return 1.5 + 2.5 * 2.0;
}`)

	main := fnByName(t, prog, "main")
	ops := []Op{}
	for _, ins := range main.Instructions {
		ops = append(ops, ins.Op)
	}
	want := []Op{OpArga, OpPush, OpPush, OpPush, OpMulf, OpAddf, OpStore, OpRet}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("got %v, want %v", ops, want)
	}
}

func TestAsConversions(t *testing.T) {
	prog := compileSrc(t, `
fn main() -> void {
    let d: double = 1 as double;
    let i: int = d as int;
}`)

	checkCode(t, fnByName(t, prog, "main"), []Instruction{
		{Op: OpLoca, X: 0},
		{Op: OpPush, X: 1},
		{Op: OpItof},
		{Op: OpStore},
		{Op: OpLoca, X: 1},
		{Op: OpLoca, X: 0},
		{Op: OpLoad},
		{Op: OpFtoi},
		{Op: OpStore},
		{Op: OpRet},
	})
}

func TestAsIdentityEmitsNothing(t *testing.T) {
	with := compileSrc(t, "fn main() -> int { let x: int = 1; return x as int; }")
	without := compileSrc(t, "fn main() -> int { let x: int = 1; return x; }")

	if !reflect.DeepEqual(fnByName(t, with, "main").Instructions,
		fnByName(t, without, "main").Instructions) {
		t.Error("x as int emitted differently from plain x")
	}
}

func TestCharLiteralIsInt(t *testing.T) {
	prog := compileSrc(t, "fn main() -> int { return 'A'; }")

	checkCode(t, fnByName(t, prog, "main"), []Instruction{
		{Op: OpArga, X: 0},
		{Op: OpPush, X: 65},
		{Op: OpStore},
		{Op: OpRet},
	})
}

func TestShadowingUsesInnermost(t *testing.T) {
	prog := compileSrc(t, `
fn main() -> int {
    let x: int = 1;
    {
        let x: int = 2;
        x = 3;
    }
    return x;
}`)

	main := fnByName(t, prog, "main")
	if main.LocalSlots != 2 {
		t.Fatalf("expected 2 local slots, got %d", main.LocalSlots)
	}
	// the inner assignment must address slot 1, the return slot 0
	if len(main.Instructions) != 14 {
		t.Fatalf("expected 14 instructions, got %v", main.Instructions)
	}
	if ins := main.Instructions[6]; ins.Op != OpLoca || ins.X != 1 {
		t.Errorf("inner assignment addresses %v, want loca 1", ins)
	}
	if ins := main.Instructions[10]; ins.Op != OpLoca || ins.X != 0 {
		t.Errorf("return addresses %v, want loca 0", ins)
	}
}

func TestFunctionIDsAreOrdinal(t *testing.T) {
	prog := compileSrc(t, `
fn a() -> void {}
fn b() -> void {}
fn main() -> void { a(); b(); }`)

	wantNames := []string{"_start", "a", "b", "main"}
	if len(prog.Functions) != len(wantNames) {
		t.Fatalf("expected %d functions, got %d", len(wantNames), len(prog.Functions))
	}
	for i, fn := range prog.Functions {
		if fn.ID != i {
			t.Errorf("function %s: id=%d at position %d", fn.Name, fn.ID, i)
		}
		if fn.Name != wantNames[i] {
			t.Errorf("position %d: got %s, want %s", i, fn.Name, wantNames[i])
		}
	}
}

func TestScopeHygiene(t *testing.T) {
	a := NewAnalyzer(newBuffer(`
let g: int = 1;
fn main() -> void {
    let x: int = 0;
    while x < 3 {
        let y: int = x;
        if y == 2 { let z: int = y; }
        x = x + 1;
    }
}`))
	if _, err := a.Analyze(); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if a.level != 0 {
		t.Errorf("level counter is %d after analysis", a.level)
	}
	for _, sym := range a.syms.syms {
		if sym.Level >= 1 {
			t.Errorf("local symbol %q survived analysis", sym.Name)
		}
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code ErrorCode
	}{
		{"AssignUndeclared", "fn main() -> void { x = 1; }", NotDeclared},
		{"ReadUndeclared", "fn main() -> void { let y: int = x; }", NotDeclared},
		{"CallUndeclared", "fn main() -> void { f(); }", NotDeclared},
		{"RedeclareSameLevel", "fn main() -> void { let x: int; let x: int; }", DuplicateDeclaration},
		{"RedeclareParam", "fn f(a: int) -> void { let a: int; } fn main() -> void {}", DuplicateDeclaration},
		{"RedeclareFunction", "fn f() -> void {} fn f() -> void {} fn main() -> void {}", DuplicateDeclaration},
		{"DeclShadowsFunction", "fn f() -> void {} fn main() -> void { let f: int; }", DuplicateDeclaration},
		{"DuplicateParamName", "fn f(a: int, a: int) -> void {} fn main() -> void {}", DuplicateDeclaration},
		{"AssignToConst", "fn main() -> void { const c: int = 1; c = 2; }", AssignToConstant},
		{"AssignTypeMismatch", "fn main() -> void { let x: int; x = 2.0; }", InvalidAssignment},
		{"InitTypeMismatch", "fn main() -> void { let x: int = 1.0; }", InvalidAssignment},
		{"MixedBinaryOperands", "fn main() -> void { let x: int = 1 + 2.0; }", TypeError},
		{"NegateVoid", "fn main() -> void { -putln(); }", TypeError},
		{"CastVoidOperand", "fn main() -> void { putln() as int; }", TypeError},
		{"MissingReturn", "fn main() -> int {}", NotValidReturn},
		{"ReturnValueFromVoid", "fn main() -> void { return 1; }", NotValidReturn},
		{"ReturnWrongType", "fn main() -> int { return 1.0; }", NotValidReturn},
		{"DeclVoidVariable", "fn main() -> void { let x: void; }", NotValidReturn},
		{"LibCallMissingArg", "fn main() -> void { putint(); }", ParamError},
		{"LibCallWrongType", "fn main() -> void { putint(1.0); }", ParamError},
		{"LibCallExtraArg", "fn main() -> void { putln(1); }", ParamError},
		{"UserCallArity", "fn f(a: int) -> void {} fn main() -> void { f(); }", ParamError},
		{"UserCallWrongType", "fn f(a: double) -> void {} fn main() -> void { f(1); }", ParamError},
		{"BreakOutsideLoop", "fn main() -> void { break; }", NotWhile},
		{"ContinueOutsideLoop", "fn main() -> void { continue; }", NotWhile},
		{"NoMainFunction", "fn f() -> void {}", NoMain},
		{"UnknownTypeName", "fn main() -> void { let x: banana; }", InvalidInput},
		{"BadStatementStart", "fn main() -> void { * }", InvalidInput},
		{"ConstWithoutInit", "fn main() -> void { const c: int; }", ExpectedToken},
		{"MissingSemicolon", "fn main() -> void { let x: int = 1 }", ExpectedToken},
		{"MissingArrow", "fn main() void {}", ExpectedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := compileErr(t, tt.src)
			if ce.Code != tt.code {
				t.Errorf("got %v, want %v (error: %v)", ce.Code, tt.code, ce)
			}
		})
	}
}

func TestSelfRecursionResolves(t *testing.T) {
	prog := compileSrc(t, `
fn fib(n: int) -> int {
    if n < 2 { return n; }
    return fib(n - 1) + fib(n - 2);
}
fn main() -> int { return fib(10); }`)

	fib := fnByName(t, prog, "fib")
	calls := 0
	for _, ins := range fib.Instructions {
		if ins.Op == OpCall && ins.X == int64(fib.ID) {
			calls++
		}
	}
	if calls != 2 {
		t.Errorf("expected 2 self calls, got %d", calls)
	}
}

func TestLibraryCallsRepeatNameGlobals(t *testing.T) {
	prog := compileSrc(t, `
fn main() -> void {
    putln();
    putln();
}`)

	count := 0
	for _, g := range prog.Globals {
		if g.Name == "putln" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected 2 putln name globals, got %d", count)
	}
}

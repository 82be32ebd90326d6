package compiler

import "fmt"

// ErrorCode identifies the kind of a compile error.
type ErrorCode int

const (
	InvalidInput ErrorCode = iota
	ExpectedToken
	NotDeclared
	DuplicateDeclaration
	AssignToConstant
	InvalidAssignment
	TypeError
	NotValidReturn
	ParamError
	NotWhile
	NoMain
)

var errorNames = [...]string{
	InvalidInput:         "InvalidInput",
	ExpectedToken:        "ExpectedToken",
	NotDeclared:          "NotDeclared",
	DuplicateDeclaration: "DuplicateDeclaration",
	AssignToConstant:     "AssignToConstant",
	InvalidAssignment:    "InvalidAssignment",
	TypeError:            "TypeError",
	NotValidReturn:       "NotValidReturn",
	ParamError:           "ParamError",
	NotWhile:             "NotWhile",
	NoMain:               "NoMain",
}

func (c ErrorCode) String() string {
	if int(c) >= 0 && int(c) < len(errorNames) {
		return errorNames[c]
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// CompileError is the single error type produced by the front end. Every
// error carries the position it was detected at; ExpectedToken additionally
// carries the expected and actual token types.
type CompileError struct {
	Code     ErrorCode
	Pos      Pos
	Expected TokenType // set for ExpectedToken only
	Got      TokenType // set for ExpectedToken only
}

func (e *CompileError) Error() string {
	if e.Code == ExpectedToken {
		return fmt.Sprintf("ExpectedToken(%s, %s) at %s", e.Expected, e.Got, e.Pos)
	}
	return fmt.Sprintf("%s at %s", e.Code, e.Pos)
}

func newError(code ErrorCode, pos Pos) *CompileError {
	return &CompileError{Code: code, Pos: pos}
}

func expectedError(want TokenType, got Token) *CompileError {
	return &CompileError{Code: ExpectedToken, Pos: got.Start, Expected: want, Got: got.Type}
}

package compiler

import (
	log "github.com/sirupsen/logrus"
)

// Program is the result of a successful compile: the flat global table and
// the function list in id order, _start first.
type Program struct {
	Globals   []GlobalDef
	Functions []*FunctionDef
}

// Compile runs the whole front end over one source text: cursor, lexer,
// token buffer, then the fused analyzer/emitter.
func Compile(src string) (*Program, error) {
	it := NewSourceIter(src)
	lexer := NewLexer(it)
	analyzer := NewAnalyzer(NewTokenBuffer(lexer))

	prog, err := analyzer.Analyze()
	if err != nil {
		return nil, err
	}

	log.Debugf("compiled %d globals, %d functions", len(prog.Globals), len(prog.Functions))
	for _, fn := range prog.Functions {
		log.Debugf("  fn %s: id=%d params=%d locals=%d instructions=%d",
			fn.Name, fn.ID, len(fn.Params), fn.LocalSlots, len(fn.Instructions))
	}
	return prog, nil
}

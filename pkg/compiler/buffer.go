package compiler

// TokenBuffer provides one-token lookahead over a Lexer.
type TokenBuffer struct {
	lexer  *Lexer
	peeked *Token
}

func NewTokenBuffer(lexer *Lexer) *TokenBuffer {
	return &TokenBuffer{lexer: lexer}
}

// Peek returns the next token without consuming it.
func (b *TokenBuffer) Peek() (Token, error) {
	if b.peeked == nil {
		tok, err := b.lexer.NextToken()
		if err != nil {
			return Token{}, err
		}
		b.peeked = &tok
	}
	return *b.peeked, nil
}

// Next consumes and returns the next token.
func (b *TokenBuffer) Next() (Token, error) {
	if b.peeked != nil {
		tok := *b.peeked
		b.peeked = nil
		return tok, nil
	}
	return b.lexer.NextToken()
}

// Check reports whether the next token has type tt.
func (b *TokenBuffer) Check(tt TokenType) (bool, error) {
	tok, err := b.Peek()
	if err != nil {
		return false, err
	}
	return tok.Type == tt, nil
}

// Accept consumes the next token if it has type tt.
func (b *TokenBuffer) Accept(tt TokenType) (bool, error) {
	ok, err := b.Check(tt)
	if err != nil || !ok {
		return false, err
	}
	_, err = b.Next()
	return true, err
}

// Expect consumes the next token if it has type tt, and fails with an
// ExpectedToken error otherwise.
func (b *TokenBuffer) Expect(tt TokenType) (Token, error) {
	tok, err := b.Peek()
	if err != nil {
		return Token{}, err
	}
	if tok.Type != tt {
		return Token{}, expectedError(tt, tok)
	}
	return b.Next()
}

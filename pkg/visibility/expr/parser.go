package expr

import (
	"fmt"
	"strconv"
)

type node interface {
	eval(values map[string]any) bool
}

type orNode struct{ left, right node }

func (n orNode) eval(values map[string]any) bool {
	return n.left.eval(values) || n.right.eval(values)
}

type andNode struct{ left, right node }

func (n andNode) eval(values map[string]any) bool {
	return n.left.eval(values) && n.right.eval(values)
}

type notNode struct{ inner node }

func (n notNode) eval(values map[string]any) bool {
	return !n.inner.eval(values)
}

// operand is either a value path or a literal.
type operand struct {
	path    string
	literal any
	isPath  bool
}

func (o operand) resolve(values map[string]any) (any, bool) {
	if !o.isPath {
		return o.literal, true
	}
	return lookup(values, o.path)
}

type truthyNode struct{ operand operand }

func (n truthyNode) eval(values map[string]any) bool {
	value, ok := n.operand.resolve(values)
	return ok && truthy(value)
}

type compareNode struct {
	op          kind
	left, right operand
}

func (n compareNode) eval(values map[string]any) bool {
	left, _ := n.left.resolve(values)
	right, _ := n.right.resolve(values)
	return compare(n.op, left, right, n.hint())
}

// hint picks the comparison domain from whichever side is a literal.
func (n compareNode) hint() any {
	if !n.right.isPath {
		return n.right.literal
	}
	if !n.left.isPath {
		return n.left.literal
	}
	return nil
}

type parser struct {
	tokens []lexeme
	pos    int
}

func parse(tokens []lexeme) (node, error) {
	p := &parser{tokens: tokens}
	root, err := p.or()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != kindEOF {
		return nil, fmt.Errorf("expr: unexpected %q at %d", tok.text, tok.pos)
	}
	return root, nil
}

func (p *parser) peek() lexeme {
	return p.tokens[p.pos]
}

func (p *parser) accept(k kind) bool {
	if p.tokens[p.pos].kind != k {
		return false
	}
	p.pos++
	return true
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.accept(kindOr) {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) and() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.accept(kindAnd) {
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) unary() (node, error) {
	if p.accept(kindNot) {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	if p.accept(kindLParen) {
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if !p.accept(kindRParen) {
			return nil, fmt.Errorf("expr: missing ')' at %d", p.peek().pos)
		}
		return inner, nil
	}

	left, err := p.operand()
	if err != nil {
		return nil, err
	}
	switch op := p.peek().kind; op {
	case kindEq, kindNeq, kindLt, kindLte, kindGt, kindGte:
		p.pos++
		right, err := p.operand()
		if err != nil {
			return nil, err
		}
		return compareNode{op: op, left: left, right: right}, nil
	default:
		return truthyNode{operand: left}, nil
	}
}

func (p *parser) operand() (operand, error) {
	tok := p.peek()
	p.pos++
	switch tok.kind {
	case kindIdent:
		return operand{path: tok.text, isPath: true}, nil
	case kindString:
		return operand{literal: tok.text}, nil
	case kindNumber:
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return operand{}, fmt.Errorf("expr: invalid number %q", tok.text)
		}
		return operand{literal: f}, nil
	case kindTrue:
		return operand{literal: true}, nil
	case kindFalse:
		return operand{literal: false}, nil
	case kindNull:
		return operand{}, nil
	case kindEOF:
		p.pos--
		return operand{}, fmt.Errorf("expr: unexpected end of rule")
	default:
		return operand{}, fmt.Errorf("expr: expected value at %d, got %q", tok.pos, tok.text)
	}
}

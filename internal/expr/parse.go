package expr

import (
	"fmt"
	"strconv"
	"unicode"
)

type nodeKind uint8

const (
	nodeConst nodeKind = iota
	nodeArg
	nodeAdd
	nodeSub
	nodeMul
	nodeDiv
	nodeNeg
	nodeCall
)

type node struct {
	kind        nodeKind
	val         complex128
	arg         int
	left, right *node
}

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
	pos  int
}

type parser struct {
	src       string
	pos       int
	tok       token
	names     []string
	constants map[string]complex128
}

func (p *parser) next() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
	start := p.pos
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}
	c := p.src[p.pos]
	switch {
	case c == '(':
		p.pos++
		p.tok = token{kind: tokLParen, text: "(", pos: start}
	case c == ')':
		p.pos++
		p.tok = token{kind: tokRParen, text: ")", pos: start}
	case c == '+' || c == '-' || c == '*' || c == '/':
		p.pos++
		p.tok = token{kind: tokOp, text: string(c), pos: start}
	case c >= '0' && c <= '9' || c == '.':
		for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' ||
			p.src[p.pos] == '.' || p.src[p.pos] == 'e' || p.src[p.pos] == 'E' ||
			(p.pos > start && (p.src[p.pos] == '+' || p.src[p.pos] == '-') &&
				(p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E'))) {
			p.pos++
		}
		p.tok = token{kind: tokNum, text: p.src[start:p.pos], pos: start}
	case unicode.IsLetter(rune(c)) || c == '_':
		for p.pos < len(p.src) && (unicode.IsLetter(rune(p.src[p.pos])) ||
			unicode.IsDigit(rune(p.src[p.pos])) || p.src[p.pos] == '_') {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: p.src[start:p.pos], pos: start}
	default:
		p.tok = token{kind: tokOp, text: string(c), pos: start}
		p.pos++
	}
}

var precedence = map[string]int{"+": 1, "-": 1, "*": 2, "/": 2}

// parseExpr is a standard precedence climber over +, -, * and /.
func (p *parser) parseExpr(min int) (*node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp {
		prec, ok := precedence[p.tok.text]
		if !ok {
			return nil, fmt.Errorf("unknown operator %q at offset %d", p.tok.text, p.tok.pos)
		}
		if prec < min {
			break
		}
		op := p.tok.text
		p.next()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		kind := nodeAdd
		switch op {
		case "-":
			kind = nodeSub
		case "*":
			kind = nodeMul
		case "/":
			kind = nodeDiv
		}
		left = &node{kind: kind, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (*node, error) {
	switch {
	case p.tok.kind == tokOp && p.tok.text == "-":
		p.next()
		n, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeNeg, left: n}, nil
	case p.tok.kind == tokOp && p.tok.text == "+":
		p.next()
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*node, error) {
	tok := p.tok
	switch tok.kind {
	case tokNum:
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q at offset %d", tok.text, tok.pos)
		}
		p.next()
		return &node{kind: nodeConst, val: complex(v, 0)}, nil

	case tokLParen:
		p.next()
		n, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("missing ) at offset %d", p.tok.pos)
		}
		p.next()
		return n, nil

	case tokIdent:
		p.next()
		if p.tok.kind == tokLParen {
			fi := funcIndex(tok.text)
			if fi < 0 {
				return nil, fmt.Errorf("unknown function %q at offset %d", tok.text, tok.pos)
			}
			p.next()
			argNode, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if p.tok.kind != tokRParen {
				return nil, fmt.Errorf("missing ) at offset %d", p.tok.pos)
			}
			p.next()
			return &node{kind: nodeCall, arg: fi, left: argNode}, nil
		}
		if v, ok := p.constants[tok.text]; ok {
			return &node{kind: nodeConst, val: v}, nil
		}
		for i, name := range p.names {
			if name == tok.text {
				return &node{kind: nodeArg, arg: i}, nil
			}
		}
		return nil, fmt.Errorf("unknown identifier %q at offset %d", tok.text, tok.pos)

	case tokEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	}
	return nil, fmt.Errorf("unexpected %q at offset %d", tok.text, tok.pos)
}

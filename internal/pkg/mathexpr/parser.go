package mathexpr

import (
	"fmt"
)

// parser evaluates while descending. Grammar, lowest precedence first:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/" | "//" | "%") unary }
//	unary   = ("+" | "-") unary | power
//	power   = primary [ "**" unary ]
//	primary = number | name | name "(" [ expr { "," expr } ] ")" | "(" expr ")"
type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parse() (Value, error) {
	v, err := p.expr()
	if err != nil {
		return Value{}, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return Value{}, fmt.Errorf("invalid syntax near %q", t.text)
	}
	return v, nil
}

func (p *parser) expr() (Value, error) {
	left, err := p.term()
	if err != nil {
		return Value{}, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return Value{}, err
		}
		if t.text == "+" {
			left, err = add(left, right)
		} else {
			left, err = sub(left, right)
		}
		if err != nil {
			return Value{}, err
		}
	}
}

func (p *parser) term() (Value, error) {
	left, err := p.unary()
	if err != nil {
		return Value{}, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp {
			return left, nil
		}
		var op func(a, b Value) (Value, error)
		switch t.text {
		case "*":
			op = mul
		case "/":
			op = div
		case "//":
			op = floorDiv
		case "%":
			op = mod
		default:
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return Value{}, err
		}
		if left, err = op(left, right); err != nil {
			return Value{}, err
		}
	}
}

func (p *parser) unary() (Value, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "+" || t.text == "-") {
		p.next()
		v, err := p.unary()
		if err != nil {
			return Value{}, err
		}
		if t.text == "-" {
			return negate(v), nil
		}
		return v, nil
	}
	return p.power()
}

func (p *parser) power() (Value, error) {
	base, err := p.primary()
	if err != nil {
		return Value{}, err
	}
	if t := p.peek(); t.kind == tokOp && t.text == "**" {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return Value{}, err
		}
		return power(base, exp)
	}
	return base, nil
}

func (p *parser) primary() (Value, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return t.num, nil

	case tokLParen:
		v, err := p.expr()
		if err != nil {
			return Value{}, err
		}
		if p.next().kind != tokRParen {
			return Value{}, fmt.Errorf("missing closing parenthesis")
		}
		return v, nil

	case tokIdent:
		if p.peek().kind == tokLParen {
			p.next()
			return p.call(t.text)
		}
		c, ok := constants[t.text]
		if !ok {
			return Value{}, &ForbiddenError{Name: t.text}
		}
		return c, nil

	case tokEOF:
		return Value{}, fmt.Errorf("unexpected end of expression")
	}
	return Value{}, fmt.Errorf("invalid syntax near %q", t.text)
}

func (p *parser) call(name string) (Value, error) {
	fn, ok := functions[name]
	if !ok {
		return Value{}, &ForbiddenError{Name: name}
	}

	var args []Value
	if p.peek().kind != tokRParen {
		for {
			v, err := p.expr()
			if err != nil {
				return Value{}, err
			}
			args = append(args, v)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if p.next().kind != tokRParen {
		return Value{}, fmt.Errorf("missing closing parenthesis in call to %s()", name)
	}

	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return Value{}, fmt.Errorf("%s() got %d arguments", name, len(args))
	}
	return fn.call(args)
}

package idl

import "fmt"

type valueKind int

const (
	valCall valueKind = iota
	valString
	valNumber
	valBool
	valMap
	valList
)

// value is one parsed AST node: either a type constructor call
// (`ident(args)`), a string/number/bool literal, a `{...}` argument map, or
// a `[...]` list.
type value struct {
	kind valueKind

	call string // valCall
	args *argMap

	str  string  // valString
	num  float64 // valNumber
	flag bool    // valBool

	m    *argMap // valMap
	list []value // valList
}

// argMap is an ordered `{key: value, ...}` map. Order is preserved because
// struct/union field declaration order determines buffer layout.
type argMap struct {
	keys []string
	vals []value
}

func (m *argMap) get(key string) (value, bool) {
	if m == nil {
		return value{}, false
	}
	for i, k := range m.keys {
		if k == key {
			return m.vals[i], true
		}
	}
	return value{}, false
}

func (m *argMap) pairs() [][2]any {
	out := make([][2]any, len(m.keys))
	for i := range m.keys {
		out[i] = [2]any{m.keys[i], m.vals[i]}
	}
	return out
}

type parser struct {
	toks []token
	pos  int
}

func parse(src string) (value, error) {
	toks, err := lex(src)
	if err != nil {
		return value{}, err
	}
	p := &parser{toks: toks}
	v, err := p.parseValue()
	if err != nil {
		return value{}, err
	}
	if p.peek().kind != tokEOF {
		return value{}, fmt.Errorf("idl: trailing input at offset %d", p.peek().pos)
	}
	return v, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokenKind, what string) (token, error) {
	t := p.peek()
	if t.kind != k {
		return token{}, fmt.Errorf("idl: expected %s at offset %d", what, t.pos)
	}
	return p.advance(), nil
}

func (p *parser) parseValue() (value, error) {
	t := p.peek()
	switch t.kind {
	case tokIdent:
		return p.parseCall()
	case tokString:
		p.advance()
		return value{kind: valString, str: t.text}, nil
	case tokNumber:
		p.advance()
		return value{kind: valNumber, num: t.num}, nil
	case tokTrue:
		p.advance()
		return value{kind: valBool, flag: true}, nil
	case tokFalse:
		p.advance()
		return value{kind: valBool, flag: false}, nil
	case tokLBrace:
		m, err := p.parseMap()
		if err != nil {
			return value{}, err
		}
		return value{kind: valMap, m: m}, nil
	case tokLBrack:
		list, err := p.parseList()
		if err != nil {
			return value{}, err
		}
		return value{kind: valList, list: list}, nil
	default:
		return value{}, fmt.Errorf("idl: unexpected token at offset %d", t.pos)
	}
}

func (p *parser) parseCall() (value, error) {
	name := p.advance() // ident
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return value{}, err
	}

	var args *argMap
	if p.peek().kind != tokRParen {
		m, err := p.parseMap()
		if err != nil {
			return value{}, err
		}
		args = m
	}

	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return value{}, err
	}
	return value{kind: valCall, call: name.text, args: args}, nil
}

// parseMap parses either a bare `{...}` or, when called as the sole
// argument of a call (`type({...})`), the braces themselves.
func (p *parser) parseMap() (*argMap, error) {
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	m := &argMap{}
	for p.peek().kind != tokRBrace {
		keyTok := p.advance()
		var key string
		switch keyTok.kind {
		case tokIdent, tokString:
			key = keyTok.text
		default:
			return nil, fmt.Errorf("idl: expected key at offset %d", keyTok.pos)
		}
		if _, err := p.expect(tokColon, "':'"); err != nil {
			return nil, err
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		m.keys = append(m.keys, key)
		m.vals = append(m.vals, v)

		if p.peek().kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *parser) parseList() ([]value, error) {
	if _, err := p.expect(tokLBrack, "'['"); err != nil {
		return nil, err
	}
	var list []value
	for p.peek().kind != tokRBrack {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		list = append(list, v)
		if p.peek().kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tokRBrack, "']'"); err != nil {
		return nil, err
	}
	return list, nil
}

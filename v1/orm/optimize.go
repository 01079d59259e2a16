package orm

import "strings"

// node is a fragment tree recovered from the parenthesised shape And, Or and
// Not produce.
type node struct {
	part ClausePart
	// param is set for PartParam leaves.
	param *Param

	// group fields; open is empty for leaves.
	open     string
	op       string
	operands [][]*node
}

const (
	opParen = ""
	opAnd   = "AND"
	opOr    = "OR"
	opNot   = "NOT"
	opRaw   = "RAW"
)

type clauseParser struct {
	parts  []ClausePart
	params []*Param
	pos    int
	param  int
}

func isCloser(p ClausePart) bool {
	if p.Kind != PartNative {
		return false
	}
	switch strings.TrimSpace(p.Part) {
	case ")", ") AND (", ") OR (":
		return true
	}
	return false
}

// seq parses fragments until a closing marker or the end.
func (cp *clauseParser) seq() ([]*node, bool) {
	var out []*node
	for cp.pos < len(cp.parts) {
		p := cp.parts[cp.pos]
		if isCloser(p) {
			return out, true
		}
		cp.pos++

		if p.Kind == PartParam {
			if cp.param >= len(cp.params) {
				return nil, false
			}
			out = append(out, &node{part: p, param: cp.params[cp.param]})
			cp.param++
			continue
		}

		if p.Kind != PartNative || !strings.HasSuffix(p.Part, "(") {
			out = append(out, &node{part: p})
			continue
		}

		g, ok := cp.group(p.Part)
		if !ok {
			return nil, false
		}
		out = append(out, g)
	}
	return out, true
}

// group parses the operands of an opening marker up to its ")".
func (cp *clauseParser) group(open string) (*node, bool) {
	g := &node{open: open}
	switch strings.TrimSpace(open) {
	case "(":
		g.op = opParen
	case "NOT (":
		g.op = opNot
	default:
		g.op = opRaw
	}

	for {
		operand, ok := cp.seq()
		if !ok || cp.pos >= len(cp.parts) {
			return nil, false
		}
		g.operands = append(g.operands, operand)

		closer := strings.TrimSpace(cp.parts[cp.pos].Part)
		cp.pos++
		if closer == ")" {
			break
		}
		if g.op == opNot || g.op == opRaw {
			return nil, false
		}
		kind := strings.TrimSpace(strings.Trim(closer, "()"))
		if g.op == opParen {
			g.op = kind
		} else if g.op != kind {
			return nil, false
		}
	}
	return g, true
}

func constBool(operand []*node) (value, ok bool) {
	if len(operand) == 1 && operand[0].open == "" && operand[0].part.Kind == PartBool {
		return operand[0].part.Bool, true
	}
	return false, false
}

func boolNode(v bool) []*node {
	return []*node{{part: ClausePart{Kind: PartBool, Bool: v}}}
}

// fold simplifies a sequence bottom-up, returning the folded nodes.
func fold(nodes []*node) []*node {
	var out []*node
	for _, n := range nodes {
		if n.open == "" {
			out = append(out, n)
			continue
		}
		for i := range n.operands {
			n.operands[i] = fold(n.operands[i])
			if n.op != opRaw {
				n.operands[i] = unwrap(n.operands[i])
			}
		}
		out = append(out, foldGroup(n)...)
	}
	return out
}

// unwrap strips parentheses around an operand that its enclosing group
// already parenthesises.
func unwrap(nodes []*node) []*node {
	for len(nodes) == 1 && nodes[0].open != "" && nodes[0].op == opParen {
		nodes = nodes[0].operands[0]
	}
	return nodes
}

func foldGroup(g *node) []*node {
	switch g.op {
	case opParen:
		if _, ok := constBool(g.operands[0]); ok {
			return g.operands[0]
		}
	case opNot:
		if v, ok := constBool(g.operands[0]); ok {
			return boolNode(!v)
		}
	case opAnd, opOr:
		identity := g.op == opAnd
		var kept [][]*node
		for _, operand := range g.operands {
			v, ok := constBool(operand)
			if !ok {
				kept = append(kept, operand)
				continue
			}
			if v != identity {
				return boolNode(v)
			}
		}
		switch {
		case len(kept) == 0:
			return boolNode(identity)
		case len(kept) == 1 && len(kept[0]) == 1:
			return kept[0]
		case len(kept) == 1:
			return []*node{{open: "(", op: opParen, operands: kept}}
		}
		g.operands = kept
	}
	return []*node{g}
}

func flatten(nodes []*node, parts *[]ClausePart, params *[]*Param) {
	for _, n := range nodes {
		if n.open == "" {
			*parts = append(*parts, n.part)
			if n.param != nil {
				*params = append(*params, n.param)
			}
			continue
		}

		*parts = append(*parts, ClausePart{Kind: PartNative, Part: n.open})
		for i, operand := range n.operands {
			if i > 0 {
				*parts = append(*parts, ClausePart{Kind: PartNative, Part: ") " + n.op + " ("})
			}
			flatten(operand, parts, params)
		}
		*parts = append(*parts, ClausePart{Kind: PartNative, Part: ")"})
	}
}

// Optimize collapses constant sub-clauses: TRUE AND x becomes x, FALSE OR x
// becomes x, NOT TRUE becomes FALSE, and so on. A leading TRUE that stands
// alone or precedes ORDER BY, GROUP BY and similar suffixes is dropped.
// Parameters of removed fragments are dropped with them.
//
// Clauses whose parentheses do not balance are left untouched. Optimize is
// idempotent and returns q.
func (q *Query) Optimize() *Query {
	cp := &clauseParser{parts: q.clause, params: q.params}
	nodes, ok := cp.seq()
	if !ok || cp.pos != len(q.clause) || cp.param != len(q.params) {
		return q
	}
	nodes = fold(nodes)

	// A clause that is one parenthesised operand needs no parentheses.
	nodes = unwrap(nodes)

	if len(nodes) > 0 && nodes[0].open == "" && nodes[0].part.Kind == PartBool && nodes[0].part.Bool {
		if len(nodes) == 1 || (nodes[1].open == "" && nodes[1].part.Kind == PartNative && hasClauseKeyword(nodes[1].part.Part)) {
			nodes = nodes[1:]
		}
	}

	var parts []ClausePart
	var params []*Param
	flatten(nodes, &parts, &params)

	q.clause = parts
	q.params = params
	q.dirty = true
	return q
}

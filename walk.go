// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import "strings"

// SaveString renders root as postfix (reverse-Polish) textual notation:
// entry operands as placeholders (a..z, Aa..Zz, ...) numbered in order
// of first occurrence, followed, when that numbering differs from the
// entries' own positions, by a '/' transform naming each placeholder's
// entry in turn,
// internal nodes as back-references to their own first occurrence
// (1..9, A1..Z9, ...), operators '+' OR, '>' GT, '^' XOR/NE, '!' QnTF,
// '<' GT-inverted, '&' AND, '?' QTF, and a postfix '~' wherever the
// reference at that point carries the inversion bit.
//
// It performs a two-pass DFS with an explicit stack: a frame is first
// pushed to have its children scheduled, then revisited once they are
// all resolved so the operator can be emitted after its operands.
func (g *Graph) SaveString(root NodeId) string {
	var sb strings.Builder

	type frame struct {
		id      NodeId
		revisit bool
	}

	slot := make(map[NodeId]int)        // arena index -> output slot
	placeholder := make(map[NodeId]int) // arena index -> placeholder number
	nextSlot := 0
	nextPlaceholder := 0

	stack := []frame{{root, false}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		idx := top.id.Index()

		switch {
		case idx == 0:
			stack = stack[:len(stack)-1]
			sb.WriteByte('0')
			if top.id.Inverted() {
				sb.WriteByte('~')
			}

		case idx < g.nstart:
			// everything before nstart — reserved sentinels as well as
			// true entries — is an external reference with no node of
			// its own to descend into, so it is printed as a
			// placeholder just like an entry.
			stack = stack[:len(stack)-1]
			p, ok := placeholder[idx]
			if !ok {
				p = nextPlaceholder
				placeholder[idx] = p
				nextPlaceholder++
			}
			sb.WriteString(encodePlaceholder(p))
			if top.id.Inverted() {
				sb.WriteByte('~')
			}

		case !top.revisit:
			if s, ok := slot[idx]; ok {
				stack = stack[:len(stack)-1]
				sb.WriteString(encodeBackref(nextSlot - s))
				if top.id.Inverted() {
					sb.WriteByte('~')
				}
				continue
			}
			stack[len(stack)-1].revisit = true
			n := g.store.get(idx)
			v := classify(idx, g.nstart, n.T, n.F)
			switch v {
			case variantOR, variantNE:
				stack = append(stack, frame{n.F, false})
				stack = append(stack, frame{n.Q, false})
			case variantGT, variantAND:
				stack = append(stack, frame{n.T, false})
				stack = append(stack, frame{n.Q, false})
			default: // variantQnTF, variantQTF
				stack = append(stack, frame{n.F, false})
				stack = append(stack, frame{n.T, false})
				stack = append(stack, frame{n.Q, false})
			}

		default:
			stack = stack[:len(stack)-1]
			n := g.store.get(idx)
			v := classify(idx, g.nstart, n.T, n.F)

			inv := top.id.Inverted()
			switch v {
			case variantOR:
				sb.WriteByte('+')
			case variantNE:
				sb.WriteByte('^')
			case variantAND:
				sb.WriteByte('&')
			case variantGT:
				if inv {
					sb.WriteByte('<')
					inv = false
				} else {
					sb.WriteByte('>')
				}
			case variantQnTF:
				sb.WriteByte('!')
			case variantQTF:
				sb.WriteByte('?')
			}
			slot[idx] = nextSlot
			nextSlot++
			if inv {
				sb.WriteByte('~')
			}
		}
	}

	entryOf := make([]int, nextPlaceholder)
	identity := true
	for idx, p := range placeholder {
		entryOf[p] = int(idx) - int(g.estart)
		identity = identity && entryOf[p] == p
	}
	if !identity {
		sb.WriteByte('/')
		for _, e := range entryOf {
			sb.WriteString(encodePlaceholder(e))
		}
	}

	return sb.String()
}

// encodePlaceholder and encodeBackref both use a generalised bijective
// base-26 numeral system: a run of zero or more uppercase "carry"
// digits followed by exactly one lowercase (or, for back-references,
// numeric) "unit" digit. This is what lets the alphabet extend past 26
// entries or 9 back-reference distances without ever needing a
// separator: a..z, then Aa..Zz, then AAa..AZz, and so on.
func encodePlaceholder(n int) string {
	unit := byte('a' + n%26)
	return string(bijectiveUpper(n/26-1)) + string(unit)
}

func decodePlaceholder(s string) int {
	unit := int(s[len(s)-1] - 'a')
	return (decodeBijectiveUpper(s[:len(s)-1])+1)*26 + unit
}

// encodeBackref encodes a 1-based distance (the n-th previously
// emitted internal node, counting from the most recent).
func encodeBackref(n int) string {
	n0 := n - 1
	unit := byte('1' + n0%9)
	return string(bijectiveUpper(n0/9-1)) + string(unit)
}

func decodeBackref(s string) int {
	unit := int(s[len(s)-1] - '1')
	return (decodeBijectiveUpper(s[:len(s)-1])+1)*9 + unit + 1
}

// bijectiveUpper returns the bijective base-26 digit sequence (symbols
// 'A'..'Z') for n, or nil for n < 0.
func bijectiveUpper(n int) []byte {
	if n < 0 {
		return nil
	}
	var digits []byte
	for {
		digits = append(digits, byte('A'+n%26))
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return digits
}

// decodeBijectiveUpper inverts bijectiveUpper; the empty string decodes
// to -1, matching the n/26-1 == -1 base case of the encoder.
func decodeBijectiveUpper(s string) int {
	total := 0
	for i := 0; i < len(s); i++ {
		total = total*26 + int(s[i]-'A') + 1
	}
	return total - 1
}

// textToken classifies and consumes the next token starting at s[i]:
// '0' the constant, a placeholder, a back-reference, an operator, '~',
// or '/' (the start of a trailing placeholder-permutation transform).
type textToken struct {
	kind byte // '0', 'p' placeholder, 'b' backref, or the operator/control byte itself
	n    int  // decoded value for 'p'/'b'
	next int  // index just past the token
}

func scanTextToken(s string, i int) textToken {
	c := s[i]
	switch {
	case c == '0', c == '+', c == '>', c == '^', c == '!', c == '<', c == '&', c == '?', c == '~', c == '/':
		return textToken{kind: c, next: i + 1}
	case c >= 'a' && c <= 'z':
		return textToken{kind: 'p', n: decodePlaceholder(s[i : i+1]), next: i + 1}
	case c >= '1' && c <= '9':
		return textToken{kind: 'b', n: decodeBackref(s[i : i+1]), next: i + 1}
	case c >= 'A' && c <= 'Z':
		j := i
		for j < len(s) && s[j] >= 'A' && s[j] <= 'Z' {
			j++
		}
		if j >= len(s) {
			// truncated carry run: returned as its own unrecognised
			// kind so the caller reports ErrBadToken.
			return textToken{kind: c, next: j}
		}
		if s[j] >= 'a' && s[j] <= 'z' {
			return textToken{kind: 'p', n: decodePlaceholder(s[i : j+1]), next: j + 1}
		}
		return textToken{kind: 'b', n: decodeBackref(s[i : j+1]), next: j + 1}
	default:
		// any other byte comes back as its own kind, which the caller
		// rejects with ErrBadToken.
		return textToken{kind: c, next: i + 1}
	}
}

// loadString is the shared engine behind LoadStringSafe and
// LoadStringFast: build selects whether operator nodes are interned via
// the full normaliser or directly via addBasicNode.
func (g *Graph) loadString(text string, build func(q, t, f NodeId) (NodeId, error)) (NodeId, error) {
	expr, transform, hasTransform := text, "", false
	if i := strings.IndexByte(text, '/'); i >= 0 {
		expr, transform, hasTransform = text[:i], text[i+1:], true
	}

	var permutation []int
	if hasTransform {
		for i := 0; i < len(transform); {
			tok := scanTextToken(transform, i)
			if tok.kind != 'p' {
				return 0, wrapf(ErrBadToken, "transform contains a non-placeholder token at byte %d", i)
			}
			permutation = append(permutation, tok.n)
			i = tok.next
		}
	}

	placeholderRef := func(p int) (NodeId, error) {
		if hasTransform {
			if p < 0 || p >= len(permutation) {
				return 0, wrapf(ErrBadToken, "placeholder %d has no transform entry", p)
			}
			p = permutation[p]
		}
		ref := g.estart + NodeId(p)
		if ref >= g.nstart {
			return 0, wrapf(ErrBadRange, "placeholder %d exceeds entry range", p)
		}
		return ref, nil
	}

	var operands []NodeId
	var slots []NodeId // arena index of each operator-built node, in build order

	pop := func() NodeId {
		v := operands[len(operands)-1]
		operands = operands[:len(operands)-1]
		return v
	}

	for i := 0; i < len(expr); {
		tok := scanTextToken(expr, i)
		i = tok.next

		switch tok.kind {
		case '0':
			operands = append(operands, 0)

		case 'p':
			ref, err := placeholderRef(tok.n)
			if err != nil {
				return 0, err
			}
			operands = append(operands, ref)

		case 'b':
			if tok.n < 1 || tok.n > len(slots) {
				return 0, wrapf(ErrBadRange, "back-reference %d out of range (%d nodes emitted)", tok.n, len(slots))
			}
			operands = append(operands, slots[len(slots)-tok.n])

		case '~':
			if len(operands) == 0 {
				return 0, wrapf(ErrBadToken, "'~' with nothing on the operand stack")
			}
			operands[len(operands)-1] = operands[len(operands)-1].Invert()

		case '+', '^', '>', '<', '&':
			if len(operands) < 2 {
				return 0, wrapf(ErrBadToken, "operator %q needs two operands", tok.kind)
			}
			b := pop()
			a := pop()
			var id NodeId
			var err error
			switch tok.kind {
			case '+':
				// T is the literal OR marker, not an independent
				// child: never read from the operand stack.
				id, err = build(a, IBIT, b)
			case '^':
				// T is derived from F (T == F with inversion
				// flipped), not independently printed.
				id, err = build(a, b.Invert(), b)
			case '&':
				// b already carries whatever sign its own text
				// reconstructed; GT/AND's T is an independent child
				// printed (and parsed) exactly as stored.
				id, err = build(a, b, 0)
			case '>':
				id, err = build(a, b, 0)
			case '<':
				id, err = build(a, b, 0)
				if err == nil {
					id = id.Invert()
				}
			}
			if err != nil {
				return 0, err
			}
			slots = append(slots, id.Index())
			operands = append(operands, id)

		case '!', '?':
			if len(operands) < 3 {
				return 0, wrapf(ErrBadToken, "operator %q needs three operands", tok.kind)
			}
			f := pop()
			t := pop()
			q := pop()
			// t already carries whatever sign its own text
			// reconstructed; '!' vs '?' only dictated which operator
			// byte SaveString chose to print, not how T is read back.
			id, err := build(q, t, f)
			if err != nil {
				return 0, err
			}
			slots = append(slots, id.Index())
			operands = append(operands, id)

		case '/':
			return 0, wrapf(ErrBadToken, "unexpected '/' inside expression")

		default:
			return 0, wrapf(ErrBadToken, "unrecognised token %q", tok.kind)
		}
	}

	if len(operands) != 1 {
		return 0, wrapf(ErrBadToken, "textual form left %d operands on the stack, want 1", len(operands))
	}
	return operands[0], nil
}

// LoadStringSafe parses text and interns each operator node via the
// full normaliser, as when reading input that may not already be
// canonical.
func (g *Graph) LoadStringSafe(text string) (NodeId, error) {
	return g.loadString(text, func(q, t, f NodeId) (NodeId, error) {
		return g.AddNormaliseNode(q, t, f)
	})
}

// LoadStringFast parses text and interns each operator node directly
// via addBasicNode, skipping normalisation. Only valid when text is
// already known to be in canonical form, such as when reloading a file
// this package itself produced.
func (g *Graph) LoadStringFast(text string) (NodeId, error) {
	return g.loadString(text, func(q, t, f NodeId) (NodeId, error) {
		return g.addBasicNode(q, t, f)
	})
}

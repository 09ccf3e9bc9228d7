// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import "testing"

func TestNodeIdInvert(t *testing.T) {
	id := NodeId(5)
	inv := id.Invert()
	if inv.Index() != id {
		t.Fatalf("Invert().Index() = %d, want %d", inv.Index(), id)
	}
	if !inv.Inverted() {
		t.Fatal("Inverted() = false, want true")
	}
	if inv.Invert() != id {
		t.Fatalf("double Invert() = %d, want %d", inv.Invert(), id)
	}
}

func TestNodeIdWithInvert(t *testing.T) {
	id := NodeId(7)
	if got := id.WithInvert(true); got != id|IBIT {
		t.Fatalf("WithInvert(true) = %d, want %d", got, id|IBIT)
	}
	if got := (id | IBIT).WithInvert(false); got != id {
		t.Fatalf("WithInvert(false) = %d, want %d", got, id)
	}
}

func TestClassify(t *testing.T) {
	a := NodeId(10)
	b := NodeId(11)

	cases := []struct {
		name string
		t, f NodeId
		want variant
	}{
		{"OR", IBIT, b, variantOR},
		{"GT", a.Invert(), 0, variantGT},
		{"NE", a.Invert(), a, variantNE},
		{"AND", a, 0, variantAND},
		{"QnTF", a.Invert(), b, variantQnTF},
		{"QTF", a, b, variantQTF},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := classify(1, 1, c.t, c.f)
			if got != c.want {
				t.Fatalf("classify(_,_,%d,%d) = %v, want %v", c.t, c.f, got, c.want)
			}
		})
	}
}

func TestClassifyConstAndEntry(t *testing.T) {
	if got := classify(0, 0, 0, 0); got != variantConst0 {
		t.Fatalf("classify const0 = %v, want variantConst0", got)
	}
	if got := classify(2, 4, IBIT, 2); got != variantEntry {
		t.Fatalf("classify entry = %v, want variantEntry", got)
	}
}

func TestVariantRankOrdering(t *testing.T) {
	order := []variant{variantOR, variantGT, variantNE, variantAND, variantQnTF, variantQTF}
	for i := 1; i < len(order); i++ {
		if order[i-1].rank() >= order[i].rank() {
			t.Fatalf("rank(%v)=%d not < rank(%v)=%d", order[i-1], order[i-1].rank(), order[i], order[i].rank())
		}
	}
}

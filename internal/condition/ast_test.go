package condition

import (
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/cubedb/cube/internal/datatype"
	"github.com/cubedb/cube/internal/schema"
)

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func mustValueNode(t *testing.T, field string, op Op, value []byte) *ASTNode {
	t.Helper()
	n, err := NewValueNode(field, op, value)
	if err != nil {
		t.Fatalf("NewValueNode(%s, %s): %v", field, op, err)
	}
	return n
}

func TestNewValueNode(t *testing.T) {
	t.Run("rejects internal operators", func(t *testing.T) {
		if _, err := NewValueNode("foo", AlwaysTrue, u64le(1)); !errors.Is(err, ErrInternalOp) {
			t.Fatalf("expected ErrInternalOp, got %v", err)
		}
	})

	t.Run("rejects null with ordering operators", func(t *testing.T) {
		for _, op := range []Op{LT, LE, GT, GE} {
			if _, err := NewValueNode("foo", op, nil); !errors.Is(err, ErrNullOperator) {
				t.Fatalf("op %s: expected ErrNullOperator, got %v", op, err)
			}
		}
	})

	t.Run("allows null test with equality", func(t *testing.T) {
		n := mustValueNode(t, "foo", EQ, nil)
		if !n.IsNullTest() {
			t.Fatal("expected a null test node")
		}
	})

	t.Run("copies the literal", func(t *testing.T) {
		lit := u64le(7)
		n := mustValueNode(t, "foo", EQ, lit)
		lit[0] = 0xFF
		if n.Value[0] == 0xFF {
			t.Fatal("node shares storage with the caller's literal")
		}
	})
}

func TestSetNodeMembers(t *testing.T) {
	members := [][]byte{[]byte("red"), []byte("green"), []byte("blue")}
	n, err := NewSetNode("color", In, members)
	if err != nil {
		t.Fatal(err)
	}
	got := n.Members()
	if !reflect.DeepEqual(got, members) {
		t.Fatalf("Members() = %q, want %q", got, members)
	}

	if _, err := NewSetNode("color", EQ, members); err == nil {
		t.Fatal("expected error for non-set operator")
	}
}

func TestNegate(t *testing.T) {
	t.Run("value node complements the operator", func(t *testing.T) {
		pairs := map[Op]Op{LT: GE, LE: GT, GT: LE, GE: LT, EQ: NE, NE: EQ, In: NotIn, NotIn: In}
		for op, want := range pairs {
			var n *ASTNode
			if op.IsSetOp() {
				n, _ = NewSetNode("foo", op, [][]byte{u64le(1)})
			} else {
				n = mustValueNode(t, "foo", op, u64le(1))
			}
			if got := n.Negate().Op; got != want {
				t.Errorf("%s negated to %s, want %s", op, got, want)
			}
		}
	})

	t.Run("expression node applies De Morgan", func(t *testing.T) {
		a := mustValueNode(t, "foo", GT, u64le(3))
		b := mustValueNode(t, "foo", LE, u64le(7))
		and := combineAST(a, b, And)

		neg := and.Negate()
		if neg.Combination != Or {
			t.Fatalf("negated AND has combination %s", neg.Combination)
		}
		if neg.Children[0].Op != LE || neg.Children[1].Op != GT {
			t.Fatalf("children not complemented: %s, %s", neg.Children[0].Op, neg.Children[1].Op)
		}
	})

	t.Run("involution restores the tree", func(t *testing.T) {
		a := mustValueNode(t, "foo", GT, u64le(3))
		b := mustValueNode(t, "bar", EQ, nil)
		tree := combineAST(a, b, Or)

		if got, want := tree.Negate().Negate().String(), tree.String(); got != want {
			t.Fatalf("double negation changed the tree: %s != %s", got, want)
		}
	})

	t.Run("transient NOT negates to its child", func(t *testing.T) {
		child := mustValueNode(t, "foo", EQ, u64le(1))
		not := &ASTNode{kind: exprNode, Combination: Not, Children: []*ASTNode{child}}
		if got := not.Negate().String(); got != child.String() {
			t.Fatalf("NOT negation = %s, want %s", got, child.String())
		}
	})
}

func TestCombineFlattening(t *testing.T) {
	a := New()
	if err := a.Init("foo", GT, u64le(1)); err != nil {
		t.Fatal(err)
	}
	b := New()
	if err := b.Init("foo", LT, u64le(9)); err != nil {
		t.Fatal(err)
	}
	c := New()
	if err := c.Init("bar", EQ, u64le(5)); err != nil {
		t.Fatal(err)
	}

	ab, err := a.Combine(b, And)
	if err != nil {
		t.Fatal(err)
	}
	abc, err := ab.Combine(c, And)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(abc.AST().Children); got != 3 {
		t.Fatalf("AND chain has %d children, want 3 (flattened)", got)
	}

	t.Run("mismatched operators nest", func(t *testing.T) {
		or, err := abc.Combine(a, Or)
		if err != nil {
			t.Fatal(err)
		}
		if got := len(or.AST().Children); got != 2 {
			t.Fatalf("OR over AND has %d children, want 2", got)
		}
	})

	t.Run("rejects NOT", func(t *testing.T) {
		if _, err := a.Combine(b, Not); !errors.Is(err, ErrInvalidCombination) {
			t.Fatalf("expected ErrInvalidCombination, got %v", err)
		}
	})
}

func TestCloneIndependence(t *testing.T) {
	a := mustValueNode(t, "foo", GT, u64le(3))
	b := mustValueNode(t, "bar", LT, u64le(7))
	tree := combineAST(a, b, And)

	clone := tree.Clone()
	clone.Children[0].Value[0] = 0xFF
	clone.Children = clone.Children[:1]

	if tree.Children[0].Value[0] == 0xFF {
		t.Fatal("clone shares literal storage with the original")
	}
	if len(tree.Children) != 2 {
		t.Fatal("clone shares the child slice with the original")
	}
}

func TestFieldNames(t *testing.T) {
	a := New()
	if err := a.Init("zeta", GT, u64le(1)); err != nil {
		t.Fatal(err)
	}
	b := New()
	if err := b.Init("alpha", LT, u64le(2)); err != nil {
		t.Fatal(err)
	}
	c := New()
	if err := c.Init("zeta", NE, u64le(3)); err != nil {
		t.Fatal(err)
	}

	ab, _ := a.Combine(b, And)
	abc, _ := ab.Combine(c, Or)

	want := []string{"alpha", "zeta"}
	if got := abc.FieldNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("FieldNames() = %v, want %v", got, want)
	}
}

func TestCheck(t *testing.T) {
	s := schema.New()
	if err := s.AddAttribute(&schema.Attribute{Name: "foo", Type: datatype.Uint64}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddAttribute(&schema.Attribute{Name: "name", Type: datatype.StringASCII, VarSize: true}); err != nil {
		t.Fatal(err)
	}

	t.Run("unknown field", func(t *testing.T) {
		c := New()
		if err := c.Init("nope", EQ, u64le(1)); err != nil {
			t.Fatal(err)
		}
		if err := c.Check(s); !errors.Is(err, schema.ErrUnknownField) {
			t.Fatalf("expected ErrUnknownField, got %v", err)
		}
	})

	t.Run("literal size mismatch", func(t *testing.T) {
		c := New()
		if err := c.Init("foo", EQ, u32le(1)); err != nil {
			t.Fatal(err)
		}
		if err := c.Check(s); !errors.Is(err, ErrLiteralSize) {
			t.Fatalf("expected ErrLiteralSize, got %v", err)
		}
	})

	t.Run("var-size literal is not size-checked", func(t *testing.T) {
		c := New()
		if err := c.Init("name", EQ, []byte("anything")); err != nil {
			t.Fatal(err)
		}
		if err := c.Check(s); err != nil {
			t.Fatalf("Check: %v", err)
		}
	})

	t.Run("delete timestamps field is always known", func(t *testing.T) {
		c := New()
		if err := c.Init(DeleteTimestampsField, LE, u64le(100)); err != nil {
			t.Fatal(err)
		}
		if err := c.Check(s); err != nil {
			t.Fatalf("Check: %v", err)
		}
	})

	t.Run("malformed expression nodes", func(t *testing.T) {
		leaf := mustValueNode(t, "foo", EQ, u64le(1))
		single := &ASTNode{kind: exprNode, Combination: And, Children: []*ASTNode{leaf}}
		if err := single.check(s); !errors.Is(err, ErrMalformedTree) {
			t.Fatalf("expected ErrMalformedTree, got %v", err)
		}

		not := &ASTNode{kind: exprNode, Combination: Not, Children: []*ASTNode{leaf, leaf}}
		if err := not.check(s); !errors.Is(err, ErrMalformedTree) {
			t.Fatalf("expected ErrMalformedTree for 2-child NOT, got %v", err)
		}
	})
}

func TestEnumerationRewrite(t *testing.T) {
	s := schema.New()
	if err := s.AddAttribute(&schema.Attribute{
		Name: "color", Type: datatype.Uint32, EnumerationName: "colors",
	}); err != nil {
		t.Fatal(err)
	}
	s.AddEnumeration(schema.NewEnumeration("colors", true,
		[][]byte{[]byte("blue"), []byte("green"), []byte("red")}))

	rewrite := func(t *testing.T, op Op, value []byte) *ASTNode {
		t.Helper()
		c := New()
		if err := c.Init("color", op, value); err != nil {
			t.Fatal(err)
		}
		r, err := c.RewriteForSchema(s)
		if err != nil {
			t.Fatal(err)
		}
		return r.AST()
	}

	t.Run("EQ resolves to the dictionary index", func(t *testing.T) {
		n := rewrite(t, EQ, []byte("green"))
		if !n.EnumerationLookup {
			t.Fatal("rewritten node not marked as enumeration lookup")
		}
		if !reflect.DeepEqual(n.Value, u32le(1)) {
			t.Fatalf("rewritten value = %v, want index 1", n.Value)
		}
	})

	t.Run("EQ on absent literal becomes ALWAYS_FALSE", func(t *testing.T) {
		n := rewrite(t, EQ, []byte("mauve"))
		if n.Op != AlwaysFalse {
			t.Fatalf("op = %s, want ALWAYS_FALSE", n.Op)
		}
		if n.FieldName != "color" {
			t.Fatal("constant node dropped the field name")
		}
	})

	t.Run("NE on absent literal becomes ALWAYS_TRUE", func(t *testing.T) {
		if n := rewrite(t, NE, []byte("mauve")); n.Op != AlwaysTrue {
			t.Fatalf("op = %s, want ALWAYS_TRUE", n.Op)
		}
	})

	t.Run("ordered ranges rewrite to index boundaries", func(t *testing.T) {
		// value < "green" holds for index < 1.
		n := rewrite(t, LT, []byte("green"))
		if n.Op != LT || !reflect.DeepEqual(n.Value, u32le(1)) {
			t.Fatalf("LT green = %s %v, want LT index 1", n.Op, n.Value)
		}
		// value <= "green" holds for index < 2.
		n = rewrite(t, LE, []byte("green"))
		if n.Op != LT || !reflect.DeepEqual(n.Value, u32le(2)) {
			t.Fatalf("LE green = %s %v, want LT index 2", n.Op, n.Value)
		}
		// value > "green" holds for index >= 2.
		n = rewrite(t, GT, []byte("green"))
		if n.Op != GE || !reflect.DeepEqual(n.Value, u32le(2)) {
			t.Fatalf("GT green = %s %v, want GE index 2", n.Op, n.Value)
		}
		// value >= "green" holds for index >= 1.
		n = rewrite(t, GE, []byte("green"))
		if n.Op != GE || !reflect.DeepEqual(n.Value, u32le(1)) {
			t.Fatalf("GE green = %s %v, want GE index 1", n.Op, n.Value)
		}
	})

	t.Run("range boundary constants", func(t *testing.T) {
		if n := rewrite(t, LT, []byte("blue")); n.Op != AlwaysFalse {
			t.Fatalf("LT smallest = %s, want ALWAYS_FALSE", n.Op)
		}
		if n := rewrite(t, LT, []byte("zzz")); n.Op != AlwaysTrue {
			t.Fatalf("LT past largest = %s, want ALWAYS_TRUE", n.Op)
		}
		if n := rewrite(t, GT, []byte("zzz")); n.Op != AlwaysFalse {
			t.Fatalf("GT past largest = %s, want ALWAYS_FALSE", n.Op)
		}
	})

	t.Run("IN keeps only known members", func(t *testing.T) {
		c := New()
		if err := c.InitSet("color", In, [][]byte{[]byte("red"), []byte("mauve")}); err != nil {
			t.Fatal(err)
		}
		r, err := c.RewriteForSchema(s)
		if err != nil {
			t.Fatal(err)
		}
		n := r.AST()
		if got := n.Members(); len(got) != 1 || !reflect.DeepEqual(got[0], u32le(2)) {
			t.Fatalf("IN members = %v, want [index 2]", got)
		}
	})

	t.Run("range on unordered enumeration fails", func(t *testing.T) {
		u := schema.New()
		if err := u.AddAttribute(&schema.Attribute{
			Name: "color", Type: datatype.Uint32, EnumerationName: "colors",
		}); err != nil {
			t.Fatal(err)
		}
		u.AddEnumeration(schema.NewEnumeration("colors", false,
			[][]byte{[]byte("blue"), []byte("green")}))

		c := New()
		if err := c.Init("color", LT, []byte("green")); err != nil {
			t.Fatal(err)
		}
		if _, err := c.RewriteForSchema(u); !errors.Is(err, schema.ErrNotOrdered) {
			t.Fatalf("expected ErrNotOrdered, got %v", err)
		}
	})
}

func TestInitErrors(t *testing.T) {
	c := New()
	if err := c.Init("foo", EQ, u64le(1)); err != nil {
		t.Fatal(err)
	}
	if err := c.Init("foo", EQ, u64le(2)); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

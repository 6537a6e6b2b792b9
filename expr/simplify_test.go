package expr

import (
	"github.com/cottand/tally/tallyerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
)

func TestSimplifyFolds(t *testing.T) {
	x, y := Var("x"), Var("y")
	mustDiv := func(a, b *Node) *Node {
		n, err := Div(a, b)
		require.NoError(t, err)
		return n
	}
	mustMod := func(a, b *Node) *Node {
		n, err := Mod(a, b)
		require.NoError(t, err)
		return n
	}

	testCases := []struct {
		name     string
		expr     *Node
		expected *Node
	}{
		{"empty sum", Sum(), Const(0)},
		{"unary sum", Sum(x), x},
		{"cancelling constants", Sum(Const(2), x, Const(-2)), x},
		{"constant sum", Sum(Const(2), Const(3), Sum(Const(4))), Const(9)},
		{"product with zero", Product(x, Const(0), y), Const(0)},
		{"constant product", Product(Const(2), Const(3)), Const(6)},
		{"product by one", Product(x, Const(1)), x},
		{"constant min", Min(Const(3), Const(1), Const(2)), Const(1)},
		{"constant max", Max(Const(3), Max(Const(7), Const(2))), Const(7)},
		{"constant div", mustDiv(Const(7), Const(2)), Const(3)},
		{"div by one", mustDiv(x, Const(1)), x},
		{"constant mod", mustMod(Const(-7), Const(3)), Const(-1)},
		{"mod by one", mustMod(x, Const(1)), Const(0)},
		{"mod by minus one", mustMod(x, Const(-1)), Const(0)},
		{"x == x", Eq(x, x), Const(1)},
		{"x <= x", Le(x, x), Const(1)},
		{"x != x", Ne(x, x), Const(0)},
		{"x < x", Lt(x, x), Const(0)},
		{"commuted equal sums", Eq(Sum(x, y), Sum(y, x)), Const(1)},
		{"constant relation", Lt(Const(1), Const(2)), Const(1)},
		{"constant ge", Ge(Const(1), Const(2)), Const(0)},
		{"all different equal", AllDifferent(x, x, x), Const(0)},
		{"all different with repeat", AllDifferent(x, y, x), Const(0)},
		{"all different unary", AllDifferent(x), Const(1)},
		{"all different constants", AllDifferent(Const(1), Const(2), Const(3)), Const(1)},
		{"abs constant", Abs(Const(-4)), Const(4)},
		{"abs abs", Abs(Abs(x)), Abs(x)},
		{"if true", IfThenElse(Const(5), x, y), x},
		{"if false", IfThenElse(Const(0), x, y), y},
		{"if same branches", IfThenElse(Lt(x, y), x, x), x},
		{"element constant index", Element(Const(1), VarArray("a", 3)), Var("a[1]")},
		{"element constant list", ElementOf(x, Const(4), Const(4)), ElementOf(x, Const(4), Const(4))},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.True(t, Equal(testCase.expected, testCase.expr), "expected %v, got %v", testCase.expected, testCase.expr)
			assert.True(t, testCase.expr.IsSimplified())
			assert.True(t, testCase.expr.IsNormalised())
		})
	}
}

func TestSimplifyFlattensSum(t *testing.T) {
	x, y := Var("x"), Var("y")
	sum := Sum(x, Const(2), Sum(y, Const(3)))

	require.Equal(t, KindSum, sum.Kind())
	require.Equal(t, 3, sum.NumOperands())
	assert.True(t, sum.Operand(2).IsConstValue(5), "constants are folded into one trailing constant")
	for _, op := range sum.Operands() {
		assert.NotEqual(t, KindSum, op.Kind())
	}
	assert.True(t, Equal(sum, Sum(Const(5), y, x)))
}

func TestSimplifyFlattensMinMax(t *testing.T) {
	x, y, z := Var("x"), Var("y"), Var("z")

	m := Min(Const(3), x, Min(Const(1), y, Min(z, Const(0))))
	require.Equal(t, KindMin, m.Kind())
	assert.Equal(t, 4, m.NumOperands())
	assert.True(t, m.Operand(3).IsConstValue(0))

	m = Max(x, Max(y, Const(2)), Const(9))
	require.Equal(t, KindMax, m.Kind())
	assert.Equal(t, 3, m.NumOperands())
	assert.True(t, m.Operand(2).IsConstValue(9))
}

func TestSimplifyIdempotent(t *testing.T) {
	x, y := Var("x"), Var("y")
	exprs := []*Node{
		Sum(x, y, Const(1)),
		Product(x, Sum(y, Const(2))),
		Min(x, y),
		IfThenElse(Le(x, y), x, y),
		AllDifferent(x, y, Const(3)),
	}
	for _, e := range exprs {
		hash := e.Hash()
		assert.Same(t, e, e.Simplify())
		assert.Same(t, e, e.Normalise(true))
		assert.Equal(t, hash, e.Hash())
	}
}

func TestDivisionByConstantZero(t *testing.T) {
	x := Var("x")

	_, err := Div(x, Const(0))
	assert.True(t, tallyerr.HasCode(err, tallyerr.DivisionByZero), "got %v", err)

	_, err = Mod(x, Sum(Const(1), Const(-1)))
	assert.True(t, tallyerr.HasCode(err, tallyerr.DivisionByZero), "got %v", err)

	_, err = Div(x, Var("y"))
	assert.NoError(t, err)
}

func TestElementOutOfRangeConstantIsKept(t *testing.T) {
	e := Element(Const(5), VarArray("a", 3))
	assert.Equal(t, KindElement, e.Kind())
	assert.Equal(t, 4, e.NumOperands())
}

func TestVarArray(t *testing.T) {
	a := VarArray("a", 2)
	assert.True(t, Equal(Var("a[0]"), a.At(0)))
	assert.Len(t, a.Elems(), 2)
	assert.Panics(t, func() { a.At(2) })
	assert.Panics(t, func() { Var("x").At(0) })
}

func TestOverflowingConstantsAreKept(t *testing.T) {
	const big = int64(1) << 40
	n := Product(Var("x"), Const(big), Const(big))
	assert.Equal(t, KindProduct, n.Kind())
	assert.Equal(t, 3, n.NumOperands())

	_, err := Apply(KindProduct, []int64{big, big}, "big * big")
	assert.True(t, tallyerr.HasCode(err, tallyerr.Overflow), err)
	v, err := Apply(KindProduct, []int64{big, big, 0}, "big * big * 0")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), v)

	assert.True(t, Equal(Product(Const(big), Const(2)), Const(2*big)))
}

func TestMulChecked(t *testing.T) {
	for _, test := range []struct {
		a, b int64
		ok   bool
	}{
		{3, -4, true},
		{0, math.MinInt64, true},
		{1 << 31, 1 << 31, true},
		{1 << 32, 1 << 31, false},
		{-1, math.MinInt64, false},
		{math.MinInt64, -1, false},
		{-(1 << 31), 1 << 32, true},
	} {
		c, ok := MulChecked(test.a, test.b)
		assert.Equal(t, test.ok, ok, "%d * %d", test.a, test.b)
		if ok {
			assert.Equal(t, test.a*test.b, c)
		}
	}
}

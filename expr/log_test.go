package expr

import (
	"bytes"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeLogValue(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))
	n := Sum(Var("x"), Const(1))

	logger.Info("compiled", "node", n)
	assert.Contains(t, buf.String(), `node.expr="x + 1"`)
	assert.Contains(t, buf.String(), "node.kind=sum")
	assert.Contains(t, buf.String(), "node.hash=")

	var nilNode *Node
	assert.Equal(t, "nil", nilNode.LogValue().String())
}

// chain builds ((x0 + 1) * x1 + 1) * x2 ... with depth levels
func chain(depth int) *Node {
	n := Var("x0")
	for i := 1; i <= depth; i++ {
		n = Product(Sum(n, Const(1)), Var("x"+strconv.Itoa(i)))
	}
	return n
}

func TestExprStringLimit(t *testing.T) {
	n := chain(50)
	full := ExprString(n)
	for _, limit := range []int{1, 7, 64, 65, len(full) - 1} {
		assert.Equal(t, full[:limit], ExprStringLimit(n, limit), "limit %d", limit)
	}
	assert.Equal(t, full, ExprStringLimit(n, len(full)+10))
	assert.Equal(t, full, ExprStringLimit(n, 0))
	assert.Equal(t, "[a[0], a[1]][x]", ExprStringLimit(Element(Var("x"), VarArray("a", 2)), 100))
}

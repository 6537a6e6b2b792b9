package expr

import (
	"fmt"
	"log/slog"
)

var _ slog.LogValuer = (*Node)(nil)

// LogValue renders n only once a record holding it is actually handled,
// and stops rendering after maxLogLen bytes
func (n *Node) LogValue() slog.Value {
	if n == nil {
		return slog.StringValue("nil")
	}
	return slog.GroupValue(
		slog.String("expr", ExprStringLimit(n, maxLogLen)),
		slog.String("kind", n.kind.String()),
		slog.String("hash", fmt.Sprintf("%016x", n.Hash())),
	)
}

const maxLogLen = 120

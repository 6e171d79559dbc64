package adminclient

import (
	"encoding/json"
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Callers outside this module cannot import internal packages, so nothing
// the SDK exports may depend on one.
func TestPublicAPIHasNoInternalImports(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)

	fset := token.NewFileSet()
	for _, f := range files {
		if strings.HasSuffix(f, "_test.go") {
			continue
		}
		af, err := parser.ParseFile(fset, f, nil, parser.ImportsOnly)
		require.NoError(t, err)
		for _, imp := range af.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			require.NoError(t, err)
			assert.NotContains(t, path, "/internal/", "%s imports %s", f, path)
		}
	}
}

func TestOrderRequestWireFormat(t *testing.T) {
	b, err := json.Marshal(OrderRequest{
		UserID: "cust-1",
		Items:  []OrderItem{{MenuItemID: "m1", Quantity: 2, Notes: "pedas"}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":"cust-1","items":[{"menu_item_id":"m1","quantity":2,"notes":"pedas"}]}`, string(b))
}

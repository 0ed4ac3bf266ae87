package swagger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocTemplateIsValidJSON(t *testing.T) {
	var doc struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte((&swaggerDoc{}).ReadDoc()), &doc))
	require.Contains(t, doc.Paths, "/groups/{id}/students")
	require.Contains(t, doc.Paths, "/reports/export")
}

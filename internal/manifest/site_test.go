package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaTag(t *testing.T) {
	assert.Equal(t, `<meta name="webagents-md" content="/webagents.md">`, MetaTag(""))
	assert.Equal(t, `<meta name="webagents-md" content="/api/webagents.md">`, MetaTag("/api/webagents.md"))
}

func TestBuild(t *testing.T) {
	tool := BuildTool("searchProducts", "Search the product catalog.",
		"const r = await global.searchProducts(query);",
		ParamSpec{Name: "query", Type: "string", Description: "Search query text."},
		ParamSpec{Name: "filters", Description: "Untyped defaults to string."},
	)
	m := Build("Shop", "Products.", tool)

	assert.Equal(t, DefaultVersion, m.Version)
	assert.Empty(t, m.Content)
	require.Len(t, m.Tools, 1)
	require.Len(t, m.Tools[0].Params, 2)
	assert.True(t, m.Tools[0].Params[0].Required)
	assert.Equal(t, TypeString, m.Tools[0].Params[1].Type)
	assert.Empty(t, Validate(m))
}

func TestManifest_Lookup(t *testing.T) {
	m := Build("S", "",
		Tool{Name: "a", Description: "first"},
		Tool{Name: "a", Description: "second"},
	)

	tool, ok := m.Tool("a")
	require.True(t, ok)
	assert.Equal(t, "first", tool.Description)

	_, ok = m.Tool("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "a"}, m.ToolNames())
	assert.Equal(t, []string{}, (&Manifest{}).ToolNames())
}

func TestParamType_JSON(t *testing.T) {
	p := NewParam("mode", RawType(`"a" | "b"`), "").WithDefault("a")

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"mode","type":"\"a\" | \"b\"","required":false,"default":"a"}`, string(data))

	var back Param
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back)

	var num ParamType
	require.NoError(t, json.Unmarshal([]byte(`"number"`), &num))
	assert.Equal(t, KindNumber, num.Kind())
}

func TestLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte(headingStore), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte(compactSite), 0o644))

	loader := NewLoader(dir)

	m, err := loader.Load("a.md")
	require.NoError(t, err)
	assert.Equal(t, "My Store", m.Name)

	all, err := loader.LoadAll([]string{"a.md", filepath.Join(dir, "b.md")})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Site", all[1].Name)

	_, err = loader.LoadAll([]string{"a.md", "missing.md"})
	assert.Error(t, err)

	fromReader, err := loader.LoadReader(strings.NewReader(headingStore))
	require.NoError(t, err)
	assert.Equal(t, m, fromReader)
}

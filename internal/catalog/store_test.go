package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalogJSON = `{
	"meta": {"source": "test"},
	"apis": {
		"daily": {
			"title": "A股日线行情",
			"description": "Daily OHLCV quotes for A-share stocks",
			"aliases": ["daily_quote"],
			"parameters": [
				{"name": "ts_code", "required": false, "description": "stock code", "type": "str"},
				{"name": "trade_date", "required": false, "description": "trade date", "type": "str"}
			],
			"return_fields": [
				{"name": "open", "description": "opening price"},
				{"name": "close", "description": "closing price"}
			]
		},
		"stock_basic": {
			"title": "股票列表",
			"description": "Basic information of listed stocks",
			"parameters": [
				{"name": "list_status", "required": false, "description": "listing status", "type": "str"}
			],
			"return_fields": [{"name": "ts_code", "description": "stock code"}]
		},
		"fina_indicator": {
			"title": "财务指标数据",
			"description": "Financial indicators of listed companies",
			"parameters": [
				{"name": "ts_code", "required": true, "description": "stock code", "type": "str"}
			],
			"return_fields": [{"name": "roe", "description": "return on equity"}]
		}
	}
}`

func writeCatalog(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "specs.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func loadTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Load(writeCatalog(t, testCatalogJSON))
	require.NoError(t, err)
	return store
}

func TestLoad_ValidCatalog(t *testing.T) {
	store := loadTestStore(t)

	assert.Equal(t, 3, store.Len())
	assert.Equal(t, []string{"daily", "stock_basic", "fina_indicator"}, store.Names())
	assert.Equal(t, "test", store.Meta()["source"])

	spec, ok := store.Get("daily")
	require.True(t, ok)
	assert.Equal(t, "daily", spec.Name)
	assert.Equal(t, "A股日线行情", spec.Title)
	assert.Len(t, spec.Parameters, 2)
	assert.Len(t, spec.ReturnFields, 2)

	_, ok = store.Get("nope")
	assert.False(t, ok)
}

func TestLoad_RequiredParams(t *testing.T) {
	store := loadTestStore(t)

	spec, ok := store.Get("fina_indicator")
	require.True(t, ok)
	assert.Equal(t, []string{"ts_code"}, spec.RequiredParams())

	spec, ok = store.Get("daily")
	require.True(t, ok)
	assert.Empty(t, spec.RequiredParams())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogLoad)
}

func TestLoad_NotADocument(t *testing.T) {
	_, err := Load(writeCatalog(t, "not json at all: [unbalanced"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogLoad)
}

func TestLoad_SchemaViolation(t *testing.T) {
	// apis must be an object, not a list.
	_, err := Load(writeCatalog(t, `{"apis": ["daily"]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogLoad)

	// Parameter entries must carry a name.
	_, err = Load(writeCatalog(t, `{"apis": {"daily": {"parameters": [{"required": true}]}}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogLoad)

	// The apis object is mandatory.
	_, err = Load(writeCatalog(t, `{"meta": {}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogLoad)
}

func TestLoad_YAMLCatalog(t *testing.T) {
	yamlDoc := `
meta:
  source: yaml-test
apis:
  daily:
    title: quotes
    parameters:
      - name: ts_code
        required: true
  stock_basic:
    title: listing
`
	path := filepath.Join(t.TempDir(), "specs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	store, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"daily", "stock_basic"}, store.Names())

	spec, ok := store.Get("daily")
	require.True(t, ok)
	assert.Equal(t, []string{"ts_code"}, spec.RequiredParams())
}

func TestLoad_EmptyCatalog(t *testing.T) {
	store, err := Load(writeCatalog(t, `{"apis": {}}`))
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrCatalogLoad is wrapped by every catalog loading failure. The
// gateway must not serve without a valid catalog, so callers treat any
// error from Load as fatal.
var ErrCatalogLoad = errors.New("catalog load failed")

// catalogSchema is the structural contract for the catalog document
// produced by the offline scraper.
const catalogSchema = `{
	"type": "object",
	"required": ["apis"],
	"properties": {
		"apis": {
			"type": "object",
			"propertyNames": {"minLength": 1},
			"additionalProperties": {
				"type": "object",
				"properties": {
					"title": {"type": "string"},
					"description": {"type": "string"},
					"aliases": {"type": "array", "items": {"type": "string"}},
					"parameters": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["name"],
							"properties": {
								"name": {"type": "string", "minLength": 1},
								"required": {"type": "boolean"}
							}
						}
					},
					"return_fields": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["name"]
						}
					}
				}
			}
		},
		"meta": {"type": "object"}
	}
}`

type catalogDocument struct {
	Meta map[string]interface{} `json:"meta" yaml:"meta"`
	Apis map[string]*ApiSpec    `json:"apis" yaml:"apis"`
}

// Store is the in-memory API catalog: a read-only index from api name
// to its spec, preserving the document's insertion order for stable
// search tie-breaks.
type Store struct {
	apis  map[string]*ApiSpec
	order []string
	meta  map[string]interface{}
}

// Load reads and validates a catalog document (JSON or YAML) from path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrCatalogLoad, path, err)
	}
	store, err := loadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCatalogLoad, path, err)
	}
	return store, nil
}

func loadBytes(data []byte) (*Store, error) {
	jsonData, isJSON, err := toJSON(data)
	if err != nil {
		return nil, err
	}

	if err := validateSchema(jsonData); err != nil {
		return nil, err
	}

	var doc catalogDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("decoding catalog: %v", err)
	}

	var order []string
	if isJSON {
		order, err = jsonKeyOrder(data)
	} else {
		order, err = yamlKeyOrder(data)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(order))
	for _, name := range order {
		if seen[name] {
			return nil, fmt.Errorf("duplicate api name %q", name)
		}
		seen[name] = true
	}

	for name, spec := range doc.Apis {
		if spec == nil {
			doc.Apis[name] = &ApiSpec{}
		}
		doc.Apis[name].Name = name
	}

	return &Store{apis: doc.Apis, order: order, meta: doc.Meta}, nil
}

// toJSON normalizes the raw document to JSON, accepting YAML input the
// same way the config loader does. Returns whether the input was
// already JSON.
func toJSON(data []byte) ([]byte, bool, error) {
	var check map[string]interface{}
	if err := json.Unmarshal(data, &check); err == nil {
		return data, true, nil
	}
	if err := yaml.Unmarshal(data, &check); err != nil {
		return nil, false, fmt.Errorf("parsing catalog as JSON or YAML: %v", err)
	}
	jsonData, err := json.Marshal(check)
	if err != nil {
		return nil, false, fmt.Errorf("converting catalog YAML to JSON: %v", err)
	}
	return jsonData, false, nil
}

func validateSchema(jsonData []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(catalogSchema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("validating catalog: %v", err)
	}
	if !result.Valid() {
		return fmt.Errorf("catalog failed structural validation: %s", result.Errors()[0])
	}
	return nil
}

// jsonKeyOrder walks the raw JSON token stream to recover the key order
// of the "apis" object. encoding/json maps do not preserve it.
func jsonKeyOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := seekToApis(dec); err != nil {
		return nil, err
	}
	// Consume the opening brace of the apis object.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("reading apis object: %v", err)
	}
	var order []string
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading apis object: %v", err)
		}
		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{', '[':
				depth++
			case '}', ']':
				if depth == 0 {
					return order, nil
				}
				depth--
			}
		case string:
			if depth == 0 {
				order = append(order, t)
				// Skip the entry's value wholesale.
				var skip json.RawMessage
				if err := dec.Decode(&skip); err != nil {
					return nil, fmt.Errorf("reading apis entry %q: %v", t, err)
				}
			}
		}
	}
}

func seekToApis(dec *json.Decoder) error {
	// Opening brace of the document.
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("reading catalog document: %v", err)
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("locating apis object: %v", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("catalog document has no apis object")
		}
		if key == "apis" {
			return nil
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return fmt.Errorf("skipping %q: %v", key, err)
		}
	}
}

// yamlKeyOrder recovers the apis key order from a YAML document; the
// yaml.Node tree preserves mapping order.
func yamlKeyOrder(data []byte) ([]string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing catalog YAML: %v", err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("catalog document is empty")
	}
	doc := root.Content[0]
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value != "apis" {
			continue
		}
		apis := doc.Content[i+1]
		var order []string
		for j := 0; j < len(apis.Content); j += 2 {
			order = append(order, apis.Content[j].Value)
		}
		return order, nil
	}
	return nil, fmt.Errorf("catalog document has no apis object")
}

// Get returns the spec for name, if cataloged.
func (s *Store) Get(name string) (*ApiSpec, bool) {
	spec, ok := s.apis[name]
	return spec, ok
}

// Len returns the number of cataloged APIs.
func (s *Store) Len() int {
	return len(s.order)
}

// Names returns the api names in catalog insertion order.
func (s *Store) Names() []string {
	return s.order
}

// Meta returns the catalog document's metadata block, if any.
func (s *Store) Meta() map[string]interface{} {
	return s.meta
}

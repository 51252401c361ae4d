package catalog

// Parameter describes one input parameter of a cataloged API.
type Parameter struct {
	Name        string `json:"name" yaml:"name"`
	Required    bool   `json:"required" yaml:"required"`
	Description string `json:"description" yaml:"description"`
	Type        string `json:"type" yaml:"type"`
}

// ReturnField describes one column of a cataloged API's tabular output.
type ReturnField struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// ApiSpec is the metadata record for a single Tushare API, keyed by the
// upstream callable's name. Immutable once loaded.
type ApiSpec struct {
	Name         string        `json:"name"`
	Title        string        `json:"title" yaml:"title"`
	Description  string        `json:"description" yaml:"description"`
	Aliases      []string      `json:"aliases" yaml:"aliases"`
	Parameters   []Parameter   `json:"parameters" yaml:"parameters"`
	ReturnFields []ReturnField `json:"return_fields" yaml:"return_fields"`
}

// RequiredParams returns the names of all required parameters, in spec
// order.
func (s *ApiSpec) RequiredParams() []string {
	var required []string
	for _, p := range s.Parameters {
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return required
}

package model

// Doc is the free-form documentation payload attached to a class, method or
// variable. Text fields may contain inline reference markup such as
// {Foo.Bar#baz}.
type Doc struct {
	Comment    string    `yaml:"comment,omitempty" json:"comment,omitempty"`
	Params     []Param   `yaml:"params,omitempty" json:"params,omitempty"`
	Options    []Param   `yaml:"options,omitempty" json:"options,omitempty"`
	Returns    *Return   `yaml:"returns,omitempty" json:"returns,omitempty"`
	Throws     []Return  `yaml:"throws,omitempty" json:"throws,omitempty"`
	See        []string  `yaml:"see,omitempty" json:"see,omitempty"`
	Notes      []string  `yaml:"notes,omitempty" json:"notes,omitempty"`
	Todos      []string  `yaml:"todos,omitempty" json:"todos,omitempty"`
	Examples   []Example `yaml:"examples,omitempty" json:"examples,omitempty"`
	Deprecated string    `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`
	Abstract   string    `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Private    bool      `yaml:"private,omitempty" json:"private,omitempty"`
	Since      string    `yaml:"since,omitempty" json:"since,omitempty"`
	Version    string    `yaml:"version,omitempty" json:"version,omitempty"`
	Authors    []string  `yaml:"authors,omitempty" json:"authors,omitempty"`
}

// Return describes a return value or a thrown error.
type Return struct {
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Example is a titled code sample.
type Example struct {
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
	Code  string `yaml:"code" json:"code"`
}

// IsDeprecated is nil-safe.
func (d *Doc) IsDeprecated() bool {
	return d != nil && d.Deprecated != "" && d.Deprecated != "false"
}

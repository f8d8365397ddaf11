package types

// YAML views used by `provision describe`. Fields are emitted as a sequence so the
// declaration order survives marshaling.

type yamlField struct {
	Name       string  `yaml:"name"`
	Type       string  `yaml:"type"`
	Length     int     `yaml:"length,omitempty"`
	Nullable   bool    `yaml:"nullable"`
	Key        KeyRole `yaml:"key,omitempty"`
	References string  `yaml:"references,omitempty"`
}

type yamlTable struct {
	Name   string      `yaml:"name"`
	Fields []yamlField `yaml:"fields"`
}

func (d DataType) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (k KeyRole) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

func (c CommandKind) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

func (t *Table) MarshalYAML() (interface{}, error) {
	out := yamlTable{Name: t.Name, Fields: make([]yamlField, 0, t.Len())}
	for _, f := range t.Fields() {
		yf := yamlField{
			Name:     f.Name,
			Type:     f.Type.String(),
			Length:   f.Length,
			Nullable: f.Nullable,
			Key:      f.Key,
		}
		if f.IsForeign() {
			yf.References = f.Reference.String()
		}
		out.Fields = append(out.Fields, yf)
	}
	return out, nil
}

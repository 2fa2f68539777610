package application

import (
	"fmt"
	"io/fs"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Field kinds
const (
	KindString   = "string"
	KindText     = "text"
	KindNumber   = "number"
	KindLocation = "location"
	KindFile     = "file"
)

// Location fields, in cascading order.
const (
	FieldConstituency = "constituency"
	FieldWard         = "ward"
	FieldSubWard      = "subward"
)

type (
	// Condition extends the required fields of a step when Field equals Equals.
	Condition struct {
		Field   string   `yaml:"field" json:"field"`
		Equals  string   `yaml:"equals" json:"equals"`
		Require []string `yaml:"require" json:"require"`
	}

	Step struct {
		Number   int         `yaml:"-" json:"number"`
		Name     string      `yaml:"name" json:"name"`
		Required []string    `yaml:"required" json:"required"`
		Optional []string    `yaml:"optional" json:"optional,omitempty"`
		When     []Condition `yaml:"when" json:"when,omitempty"`
	}

	Field struct {
		Name    string   `yaml:"-" json:"name"`
		Label   string   `yaml:"label" json:"label"`
		Kind    string   `yaml:"kind" json:"kind"`
		Choices []string `yaml:"choices" json:"choices,omitempty"`
	}

	Ward struct {
		Name     string   `json:"name"`
		SubWards []string `json:"sub_wards"`
	}

	Constituency struct {
		Name  string `json:"name"`
		Wards []Ward `json:"wards"`
	}

	// Form is the static definition of the application wizard.
	Form struct {
		steps     []Step
		fields    map[string]Field
		submit    []string
		locations []Constituency
	}

	formFile struct {
		Steps     []Step           `yaml:"steps"`
		Submit    []string         `yaml:"submit"`
		Fields    map[string]Field `yaml:"fields"`
		Locations yaml.Node        `yaml:"locations"`
	}
)

// LoadForm parses the YAML wizard definition at path in fsys.
func LoadForm(fsys fs.FS, path string) (*Form, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading form %s", path)
	}
	return ParseForm(data)
}

func ParseForm(data []byte) (*Form, error) {
	var raw formFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parsing form")
	}
	if len(raw.Steps) < 2 {
		return nil, errors.New("form: at least 2 steps are required")
	}

	form := &Form{
		steps:  raw.Steps,
		fields: make(map[string]Field, len(raw.Fields)),
		submit: raw.Submit,
	}
	for name, fld := range raw.Fields {
		fld.Name = name
		if fld.Kind == "" {
			fld.Kind = KindString
		}
		form.fields[name] = fld
	}
	for i := range form.steps {
		form.steps[i].Number = i + 1
		if err := form.checkStep(form.steps[i]); err != nil {
			return nil, err
		}
	}
	for _, name := range form.submit {
		if !form.Has(name) {
			return nil, fmt.Errorf("form: submit references unknown field %q", name)
		}
	}

	locations, err := parseLocations(&raw.Locations)
	if err != nil {
		return nil, err
	}
	form.locations = locations
	return form, nil
}

func (f *Form) checkStep(s Step) error {
	names := append(append([]string{}, s.Required...), s.Optional...)
	for _, c := range s.When {
		names = append(names, c.Field)
		names = append(names, c.Require...)
	}
	for _, name := range names {
		if !f.Has(name) {
			return fmt.Errorf("form: step %q references unknown field %q", s.Name, name)
		}
	}
	return nil
}

// parseLocations walks the constituency -> ward -> sub-wards mapping keeping the document order.
func parseLocations(node *yaml.Node) ([]Constituency, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, errors.New("form: locations must be a mapping")
	}

	var constituencies []Constituency
	for i := 0; i+1 < len(node.Content); i += 2 {
		c := Constituency{Name: node.Content[i].Value}
		wards := node.Content[i+1]
		if wards.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("form: wards of %q must be a mapping", c.Name)
		}
		for j := 0; j+1 < len(wards.Content); j += 2 {
			w := Ward{Name: wards.Content[j].Value}
			if err := wards.Content[j+1].Decode(&w.SubWards); err != nil {
				return nil, errors.Wrapf(err, "form: sub-wards of %q", w.Name)
			}
			c.Wards = append(c.Wards, w)
		}
		constituencies = append(constituencies, c)
	}
	return constituencies, nil
}

// NumSteps is the number of wizard steps; the last one is the confirmation step.
func (f *Form) NumSteps() int { return len(f.steps) }

func (f *Form) Steps() []Step { return f.steps }

// Step returns the 1-based step n.
func (f *Form) Step(n int) (Step, bool) {
	if n < 1 || n > len(f.steps) {
		return Step{}, false
	}
	return f.steps[n-1], true
}

func (f *Form) Field(name string) (Field, bool) {
	fld, ok := f.fields[name]
	return fld, ok
}

func (f *Form) Has(name string) bool {
	_, ok := f.fields[name]
	return ok
}

func (f *Form) IsFile(name string) bool {
	fld, ok := f.fields[name]
	return ok && fld.Kind == KindFile
}

// Fields returns every field in step order.
func (f *Form) Fields() []Field {
	seen := make(map[string]bool, len(f.fields))
	fields := make([]Field, 0, len(f.fields))
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			fields = append(fields, f.fields[name])
		}
	}
	for _, s := range f.steps {
		for _, name := range s.Required {
			add(name)
		}
		for _, name := range s.Optional {
			add(name)
		}
		for _, c := range s.When {
			for _, name := range c.Require {
				add(name)
			}
		}
	}
	return fields
}

// SubmitRequired lists the fields checked right before submission.
func (f *Form) SubmitRequired() []string { return f.submit }

// Required computes the required fields of step n for the given draft:
// the static list of the step extended by the conditions matching the draft.
func (f *Form) Required(n int, d *Draft) []string {
	s, ok := f.Step(n)
	if !ok {
		return nil
	}
	required := append([]string{}, s.Required...)
	for _, c := range s.When {
		if d.Value(c.Field) == c.Equals {
			required = append(required, c.Require...)
		}
	}
	return required
}

// Missing returns the required fields of step n that are empty in the draft.
func (f *Form) Missing(n int, d *Draft) []string {
	return d.missing(f.Required(n, d))
}

func (f *Form) Locations() []Constituency { return f.locations }

func (f *Form) Wards(constituency string) []string {
	for _, c := range f.locations {
		if c.Name == constituency {
			wards := make([]string, 0, len(c.Wards))
			for _, w := range c.Wards {
				wards = append(wards, w.Name)
			}
			return wards
		}
	}
	return nil
}

func (f *Form) SubWards(constituency, ward string) []string {
	for _, c := range f.locations {
		if c.Name != constituency {
			continue
		}
		for _, w := range c.Wards {
			if w.Name == ward {
				return w.SubWards
			}
		}
	}
	return nil
}

func (f *Form) Constituencies() []string {
	names := make([]string, 0, len(f.locations))
	for _, c := range f.locations {
		names = append(names, c.Name)
	}
	return names
}

package application

import (
	"strings"
	"time"
)

// File is a document uploaded into a draft.
type File struct {
	Name        string `json:"name"` // form field name
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Content     []byte `json:"-"`
}

// Draft is an in-progress, unsaved application held in memory until it is submitted or discarded.
type Draft struct {
	ID        string            `json:"id"`
	OwnerID   string            `json:"-"`
	Step      int               `json:"step"`
	Fields    map[string]string `json:"fields"`
	Files     map[string]File   `json:"files"`
	Submitted bool              `json:"submitted"`
	CreatedAt time.Time         `json:"created_at"` // UTC
	UpdatedAt time.Time         `json:"updated_at"` // UTC
}

func NewDraft(id, ownerID string) *Draft {
	now := time.Now().UTC()
	return &Draft{
		ID:        id,
		OwnerID:   ownerID,
		Step:      1,
		Fields:    make(map[string]string),
		Files:     make(map[string]File),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Value returns the string value of a field, or the filename of a file field.
func (d *Draft) Value(name string) string {
	if v, ok := d.Fields[name]; ok {
		return v
	}
	if f, ok := d.Files[name]; ok {
		return f.Filename
	}
	return ""
}

// IsEmpty reports whether a field holds neither a non blank string nor a file.
func (d *Draft) IsEmpty(name string) bool {
	if strings.TrimSpace(d.Fields[name]) != "" {
		return false
	}
	f, ok := d.Files[name]
	return !ok || len(f.Content) == 0
}

func (d *Draft) missing(names []string) []string {
	var missing []string
	for _, name := range names {
		if d.IsEmpty(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Clone returns a deep copy of the draft.
func (d *Draft) Clone() *Draft {
	c := *d
	c.Fields = make(map[string]string, len(d.Fields))
	for k, v := range d.Fields {
		c.Fields[k] = v
	}
	c.Files = make(map[string]File, len(d.Files))
	for k, f := range d.Files {
		f.Content = append([]byte(nil), f.Content...)
		c.Files[k] = f
	}
	return &c
}

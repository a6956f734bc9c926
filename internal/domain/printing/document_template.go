// Package printing models the document templates that drive the order preview.
package printing

import (
	"encoding/json"
)

// UITypeOrderPreview identifies the order preview component
const UITypeOrderPreview = "OrderPreview"

// MockTemplateID is the id of the built-in template served when no remote template is requested
const MockTemplateID = "0366c98d-7df0-4145-adc0-6ba15c1fa9ae"

// PreviewConfig controls which sections the order preview shows
type PreviewConfig struct {
	ShowCustomerInfo bool `json:"showCustomerInfo"`
	ShowOrderLines   bool `json:"showOrderLines"`
	ShowTotals       bool `json:"showTotals"`
	ShowNotes        bool `json:"showNotes"`
}

// DefaultPreviewConfig shows every section
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{ShowCustomerInfo: true, ShowOrderLines: true, ShowTotals: true, ShowNotes: true}
}

// ComponentRaw is the free-form part of a component.
// The remote backend has used both uiType and ui_type for the same field.
type ComponentRaw struct {
	UIType  string          `json:"uiType,omitempty"`
	UIKind  string          `json:"ui_type,omitempty"`
	Type    string          `json:"type,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`
	Fields  json.RawMessage `json:"fields,omitempty"`
	Columns json.RawMessage `json:"columns,omitempty"`
	Filters json.RawMessage `json:"filters,omitempty"`
}

// Kind returns the UI type under whichever name it was stored
func (r ComponentRaw) Kind() string {
	if r.UIType != "" {
		return r.UIType
	}
	return r.UIKind
}

// Component is one placed block of a document template
type Component struct {
	H         int          `json:"h"`
	W         int          `json:"w"`
	X         int          `json:"x"`
	Y         int          `json:"y"`
	H1        string       `json:"h1"`
	Key       string       `json:"key"`
	UUID      string       `json:"uuid"`
	Field     string       `json:"field"`
	Component string       `json:"component"`
	SortOrder int          `json:"sortOrder,omitempty"`
	Raw       ComponentRaw `json:"raw"`
}

// IsOrderPreview returns true for the order preview component
func (c Component) IsOrderPreview() bool {
	return c.Raw.Kind() == UITypeOrderPreview
}

// PreviewConfig decodes the component config, defaulting to every section shown
func (c Component) PreviewConfig() PreviewConfig {
	cfg := DefaultPreviewConfig()
	if len(c.Raw.Config) == 0 {
		return cfg
	}
	if err := json.Unmarshal(c.Raw.Config, &cfg); err != nil {
		return DefaultPreviewConfig()
	}
	return cfg
}

// DocumentTemplate is a layout fetched from the remote backend
type DocumentTemplate struct {
	ID           string      `json:"id"`
	Status       string      `json:"status"`
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	Autofill     bool        `json:"autofill"`
	RedirectPath string      `json:"redirect_path,omitempty"`
	OrgID        int         `json:"orq"`
	Components   []Component `json:"components"`
}

// OrderPreview returns the first order preview component
func (t *DocumentTemplate) OrderPreview() (Component, bool) {
	for _, c := range t.Components {
		if c.IsOrderPreview() {
			return c, true
		}
	}
	return Component{}, false
}

// Processed returns a copy keeping only the order preview component.
// When the template has none, a preview with every section shown is synthesized.
func (t *DocumentTemplate) Processed() *DocumentTemplate {
	out := *t
	preview, ok := t.OrderPreview()
	if !ok {
		preview = defaultPreviewComponent()
	}
	out.Components = []Component{preview}
	return &out
}

func defaultPreviewComponent() Component {
	cfg, _ := json.Marshal(DefaultPreviewConfig())
	return Component{
		Key:       "ORDER_PREVIEW",
		Field:     "orderPreview",
		Component: "custom",
		Raw:       ComponentRaw{UIType: UITypeOrderPreview, Config: cfg},
	}
}

// MockTemplate returns the built-in template used for local development
func MockTemplate() *DocumentTemplate {
	previewCfg, _ := json.Marshal(DefaultPreviewConfig())
	return &DocumentTemplate{
		ID:     MockTemplateID,
		Status: "draft",
		Name:   "files wantwant",
		Type:   "job",
		OrgID:  63,
		Components: []Component{
			{
				H: 1700, W: 1005, X: 8, Y: 36,
				Key:       "ADDITIONAL_COMPONENT",
				UUID:      "3147deeb-16b4-47d9-bf9d-1008e711cc3c",
				Field:     "files",
				Component: "table",
				Raw: ComponentRaw{
					Type:    "table",
					Fields:  json.RawMessage(`[{"type":"string","field":"title"}]`),
					Columns: json.RawMessage(`[{"name":"title","align":"left","field":"title","label":"title","required":true,"sortable":false}]`),
					Filters: json.RawMessage(`[{"op":{"key":"_eq","label":"Equals to"},"field":"folder","value":"638a1e8c-68e4-4d83-ac7a-72432b1f413d"}]`),
				},
			},
			{
				H: 800, W: 600, X: 20, Y: 50,
				H1:        "Order Preview",
				Key:       "ORDER_PREVIEW",
				UUID:      "4258efcf-27c5-4bfa-b7d0-9c8a1e6d3a2b",
				Field:     "orderPreview",
				Component: "custom",
				Raw:       ComponentRaw{UIKind: UITypeOrderPreview, Config: previewCfg},
			},
		},
	}
}

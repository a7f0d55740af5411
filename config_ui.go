package stremio

// ConfigurationField represents a field in the configuration UI.
type ConfigurationField struct {
	Type        string `json:"type"` // "text", "number", "boolean", "select"
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Options     []any  `json:"options,omitempty"` // For select fields
}

// NewConfigurationUI creates a ConfigurationUI with the given type and properties.
func NewConfigurationUI(uiType string, properties map[string]any) *ConfigurationUI {
	return &ConfigurationUI{
		Type:       uiType,
		Properties: properties,
	}
}

// NewConfigurationField creates a ConfigurationField with the given type and label.
func NewConfigurationField(fieldType string, label string) *ConfigurationField {
	return &ConfigurationField{
		Type:  fieldType,
		Label: label,
	}
}

// SetDescription sets the description of the field.
func (f *ConfigurationField) SetDescription(description string) *ConfigurationField {
	f.Description = description
	return f
}

// SetDefault sets the default value of the field.
func (f *ConfigurationField) SetDefault(defaultValue any) *ConfigurationField {
	f.Default = defaultValue
	return f
}

// SetRequired sets whether the field is required.
func (f *ConfigurationField) SetRequired(required bool) *ConfigurationField {
	f.Required = required
	return f
}

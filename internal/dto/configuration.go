package dto

// ConfigurationItem is a feature flag with its effective value. Overridden is
// true when an administrator has persisted a value over the environment default.
type ConfigurationItem struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Overridden  bool   `json:"overridden"`
}

// UpdateConfigurationRequest is the body of PUT /configuration/flags/:key.
type UpdateConfigurationRequest struct {
	Value string `json:"value" validate:"required"`
}

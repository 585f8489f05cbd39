package upload

// FieldConfig describes how one upload field maps onto its entity.
type FieldConfig struct {
	// RemoteField is the entity attribute receiving the generated key.
	RemoteField string
	// ExtField is the entity attribute receiving the extension.
	ExtField string
	// CloudflareImage mirrors the stored object into the image CDN.
	CloudflareImage bool
	// DeleteEnabled removes the remote object once the entity is deleted.
	DeleteEnabled bool
	// Prefix namespaces generated keys; defaults to the entity's source.
	Prefix string
	// AllowEmpty lets a submission without a file leave the field untouched.
	AllowEmpty bool
}

// DefaultField returns the settings fields start from.
func DefaultField() FieldConfig {
	return FieldConfig{
		RemoteField:     "remote",
		ExtField:        "extension",
		CloudflareImage: false,
		DeleteEnabled:   true,
	}
}

// merge fills the attribute names left empty in fc.
func (fc FieldConfig) merge(d FieldConfig) FieldConfig {
	if fc.RemoteField == "" {
		fc.RemoteField = d.RemoteField
	}
	if fc.ExtField == "" {
		fc.ExtField = d.ExtField
	}
	return fc
}

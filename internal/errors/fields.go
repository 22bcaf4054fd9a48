package errors

// MissingField reports the first absent required field of a request
func MissingField(name string) error {
	return NewError("missing required field").
		WithHintf("Missing required field: %s", name).
		WithReportableDetails(map[string]any{"field": name}).
		Mark(ErrValidation)
}

// MissingFieldName returns the field carried by a MissingField error
func MissingFieldName(err error) string {
	if !IsValidation(err) {
		return ""
	}
	if v, ok := ReportableDetails(err)["field"].(string); ok {
		return v
	}
	return ""
}

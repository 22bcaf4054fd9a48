package types

// Metadata is the string map carried on gateway objects
type Metadata map[string]string

// Keys of the correlation metadata attached to gateway customers, checkout
// sessions and subscriptions. The webhook reads them back to finish an
// enrollment, so they are a wire contract with sessions created by earlier
// deployments.
const (
	MetadataKeyStudentName  = "student_name"
	MetadataKeyLessonType   = "lesson_type"
	MetadataKeyPlanMode     = "plan_mode"
	MetadataKeyEnrollmentID = "enrollment_id"
	MetadataKeySessionID    = "checkout_session_id"
	MetadataKeySource       = "source"

	// legacy key written by the first checkout page
	MetadataKeyLessonTypeLegacy = "lessonType"

	MetadataSourceEnrollment = "lesson_enrollment"
)

// Clone returns a copy of the metadata
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// LessonType returns the plan label, accepting the legacy key as well
func (m Metadata) LessonType() string {
	if v := m[MetadataKeyLessonType]; v != "" {
		return v
	}
	return m[MetadataKeyLessonTypeLegacy]
}

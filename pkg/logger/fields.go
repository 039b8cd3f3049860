package logger

// Standard field names for consistent logging.
const (
	FieldService  = "service"
	FieldChatID   = "chat_id"
	FieldLessonID = "lesson_id"
	FieldKind     = "kind"
	FieldSchool   = "school"
	FieldStudent  = "student"
)

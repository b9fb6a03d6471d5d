package loggers

const (
	FieldApp        = "app"
	FieldComponent  = "component"
	FieldHttpMethod = "http_method"
	FieldHttpPath   = "http_path"
	FieldHttpStatus = "http_status"

	FieldDuration   = "duration"
	FieldRunID      = "run_id"
	FieldErrorStack = "error_stack"
	FieldErrorCode  = "error_code"
	FieldErrorKind  = "error_kind"

	FieldSegment  = "segment"
	FieldClientID = "client_id"
	FieldBucket   = "bucket"
	FieldKey      = "key"
	FieldWindow   = "window"
)

package upload

import "fmt"

// FieldError aborts a save. Err wraps common.ErrUploadFailed for client-side
// upload errors and common.ErrRemoteWrite for failed primary writes.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("there was an error uploading `%s`: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

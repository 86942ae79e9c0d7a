package media

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	ErrInvalidConfig   = errors.New("media: invalid storage configuration")
	ErrEmptyFile       = errors.New("media: file is empty")
	ErrFileTooLarge    = errors.New("media: file exceeds size limit")
	ErrUnsupportedType = errors.New("media: file type not allowed")
	ErrNotFound        = errors.New("media: object not found")
	ErrAccessDenied    = errors.New("media: access denied")
	ErrUploadFailed    = errors.New("media: upload failed")
	ErrDeleteFailed    = errors.New("media: delete failed")
)

// wrapS3Error maps AWS failures onto sentinel errors. The original error
// is flattened with %v so callers match sentinels with errors.Is instead
// of reaching for AWS types.
func wrapS3Error(err error, fallback error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return fmt.Errorf("%w: %v", fallback, err)
}

package evidence

import "errors"

var (
	ErrMissingFields       = errors.New("missing required fields")
	ErrInvalidKind         = errors.New("invalid submission kind")
	ErrInvalidContent      = errors.New("content is not valid base64")
	ErrContentTooLarge     = errors.New("content exceeds size limit")
	ErrDisallowedExtension = errors.New("file extension not allowed")
)

package status

type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

// CodeOf extracts the status code carried by an error, falling back to 500
// for errors of any other kind.
func CodeOf(err error) Code {
	if http, ok := err.(HTTPError); ok {
		return http.Code
	}

	return InternalServerError
}

var (
	ErrBadRequest           = NewError(BadRequest, "bad request")
	ErrURLDecoding          = NewError(BadRequest, "invalid urlencoded sequence")
	ErrBadDisposition       = NewError(BadRequest, "malformed content-disposition")
	ErrBadCharset           = NewError(BadRequest, "body is not valid utf8")
	ErrBodyTooLarge         = NewError(RequestEntityTooLarge, "request body is too large")
	ErrUnsupportedMediaType = NewError(UnsupportedMediaType, "unsupported media type")
	ErrInternalServerError  = NewError(InternalServerError, "internal server error")
)

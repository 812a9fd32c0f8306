package tracker

// DuplicateRequestError is returned when registering a request id that already exists
type DuplicateRequestError struct {
	Key     string
	Message string
}

func (e *DuplicateRequestError) Error() string {
	return e.Message
}

func IsDuplicateRequestError(err error) bool {
	_, ok := err.(*DuplicateRequestError)
	return ok
}

// NotFoundError is returned when a request id or transaction hash is unknown
type NotFoundError struct {
	Key     string
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

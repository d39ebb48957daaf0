package errs

import (
	"errors"
	"net/http"
)

var (
	ErrInternalServer  = errors.New("Internal server error")
	ErrProductNotFound = errors.New("Product not found")
	ErrMissingFields   = errors.New("Name, price, and at least one image are required")
	ErrNotAnImage      = errors.New("Only image files can be uploaded")
	ErrTooManyImages   = errors.New("A maximum of 10 images can be uploaded")
	ErrImageTooLarge   = errors.New("Each image must be 5 MiB or smaller")
)

var errorMap = map[error]int{
	ErrInternalServer:  http.StatusInternalServerError,
	ErrProductNotFound: http.StatusNotFound,
	ErrMissingFields:   http.StatusBadRequest,
	ErrNotAnImage:      http.StatusBadRequest,
	ErrTooManyImages:   http.StatusBadRequest,
	ErrImageTooLarge:   http.StatusRequestEntityTooLarge,
}

// GetErrorStatusCode maps a service error to its HTTP status code.
// Errors outside the taxonomy are treated as internal server errors.
func GetErrorStatusCode(err error) int {
	for sentinel, code := range errorMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return http.StatusInternalServerError
}

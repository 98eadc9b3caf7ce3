package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inodb/genome-nav/internal/genome"
	"github.com/inodb/genome-nav/internal/interval"
)

// apiError is an error with a name and status code reported to clients.
type apiError struct {
	name  string
	code  int
	cause error
}

func (err *apiError) Error() string {
	return fmt.Sprintf("%s (%d): %v", err.name, err.code, err.cause)
}

func (err *apiError) Unwrap() error {
	return err.cause
}

func newAPIError(name string, code int, context string, err error) error {
	return &apiError{name, code, fmt.Errorf("%s: %v", context, err)}
}

func newInvalidInputError(context string, err error) error {
	return newAPIError("InvalidInput", http.StatusBadRequest, context, err)
}

func newNotFoundError(context string, err error) error {
	return newAPIError("NotFound", http.StatusNotFound, context, err)
}

// classify maps domain errors onto API errors. Unknown errors are returned
// unchanged.
func classify(err error) error {
	var ae *apiError
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, interval.ErrInvalidRange):
		return &apiError{"InvalidRange", http.StatusBadRequest, err}
	case errors.Is(err, genome.ErrNotFound):
		return &apiError{"NotFound", http.StatusNotFound, err}
	case errors.Is(err, genome.ErrUnavailable):
		return &apiError{"Unavailable", http.StatusBadGateway, err}
	}
	return err
}

// writeError writes a JSON object describing err. Errors without a name are
// reported as internal errors.
func writeError(c *gin.Context, err error) {
	var ae *apiError
	if errors.As(classify(err), &ae) {
		c.AbortWithStatusJSON(ae.code, gin.H{
			"error":   ae.name,
			"message": fmt.Sprintf("%s: %v", http.StatusText(ae.code), ae.cause),
		})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal",
		"message": fmt.Sprintf("%s: %v", http.StatusText(http.StatusInternalServerError), err),
	})
}

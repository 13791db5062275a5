// Package web defines common components for a web application.
package web

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Response holds the common response type for all APIs.
type Response struct {
	AccessToken          string `json:"access_token,omitempty"`
	AccessTokenExpiresAt string `json:"access_token_expires_at,omitempty"`
	Data                 any    `json:"data,omitempty"`
	Error                string `json:"error,omitempty"`
}

// Error wraps a given err into the common response.
func Error(err error) Response {
	return Response{Error: err.Error()}
}

// GetErrorMsg translates binding errors into a short client facing message.
func GetErrorMsg(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return err.Error()
	}

	fe := ve[0]

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s field is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s field must be a valid email", fe.Field())
	case "min":
		return fmt.Sprintf("%s field must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s field must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s field must be one of %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s field must have the format %s", fe.Field(), fe.Param())
	case "amount":
		return fmt.Sprintf("%s field must be a positive number with at most two decimals", fe.Field())
	case "transaction_type":
		return fmt.Sprintf("%s field must be Ingreso or Egreso", fe.Field())
	}

	return fmt.Sprintf("%s field is invalid", fe.Field())
}

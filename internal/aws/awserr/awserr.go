// Package awserr classifies AWS API errors by their error code.
package awserr

import (
	"errors"

	"github.com/aws/smithy-go"
)

const (
	ConditionalCheckFailed = "ConditionalCheckFailedException"
	ResourceInUse          = "ResourceInUseException"
	ResourceNotFound       = "ResourceNotFoundException"
	ParameterNotFound      = "ParameterNotFound"
	AccessDenied           = "AccessDeniedException"
)

// Code returns the API error code carried by err, or "" when err is not an API error.
func Code(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// Is reports whether err is an API error with one of the given codes.
func Is(err error, codes ...string) bool {
	code := Code(err)
	if code == "" {
		return false
	}
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

package awsd

import (
	stderrors "errors"

	"github.com/aws/smithy-go"

	"awsview/errors"
)

// AWS error codes meaning the key pair itself was refused.
var credentialErrorCodes = map[string]bool{
	"AuthFailure":                 true,
	"UnauthorizedOperation":       true,
	"InvalidClientTokenId":        true,
	"SignatureDoesNotMatch":       true,
	"UnrecognizedClientException": true,
	"ExpiredToken":                true,
}

// ErrorCode returns the AWS API error code carried by err, if any.
func ErrorCode(err error) string {
	var ae smithy.APIError
	if stderrors.As(err, &ae) {
		return ae.ErrorCode()
	}
	return ""
}

func fetchError(errType errors.ErrorType, message, region string, err error) error {
	context := map[string]interface{}{
		"region": region,
	}
	code := ErrorCode(err)
	if code != "" {
		context["aws_error_code"] = code
	}
	if credentialErrorCodes[code] {
		err = errors.New(errors.ErrFetchCredentials, "credentials rejected by AWS", context, err)
	}
	return errors.New(errType, message, context, err)
}

package cloudwatch

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/smithy-go"

	"github.com/melih/lighthouse-relay/internal/core/domain"
)

const awsHostMessage = "unexpected error on AWS host side"

func isAlreadyExists(err error) bool {
	var exists *types.ResourceAlreadyExistsException
	return errors.As(err, &exists)
}

// classifyLogsError maps every CloudWatch Logs failure, throttling included,
// to a BackendError. The API error code stays in the cause.
func classifyLogsError(action string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return domain.BackendError(awsHostMessage,
			fmt.Errorf("failed to %s: %s: %w", action, apiErr.ErrorCode(), err))
	}
	return domain.BackendError(awsHostMessage, fmt.Errorf("failed to %s: %w", action, err))
}

// credentialErrorCodes are the STS codes that mean the key pair itself was
// refused.
var credentialErrorCodes = map[string]bool{
	"InvalidClientTokenId":        true,
	"SignatureDoesNotMatch":       true,
	"ExpiredToken":                true,
	"UnrecognizedClientException": true,
	"IncompleteSignature":         true,
	"AccessDenied":                true,
}

// classifyIdentityError blames the credentials only when STS refused them.
// Server faults, throttling and transport failures are backend errors.
func classifyIdentityError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return domain.BackendError(awsHostMessage, fmt.Errorf("failed to get caller identity: %w", err))
	}
	if apiErr.ErrorFault() != smithy.FaultServer && credentialErrorCodes[apiErr.ErrorCode()] {
		return domain.UserInputError("wrong AWS credentials", err)
	}
	return domain.BackendError(awsHostMessage,
		fmt.Errorf("failed to get caller identity: %s: %w", apiErr.ErrorCode(), err))
}

package cloudwatch

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/melih/lighthouse-relay/internal/core/ports"
)

type stsAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// IdentityVerifier checks credentials with STS GetCallerIdentity, which
// needs no permissions and fails only for unusable keys.
type IdentityVerifier struct {
	client stsAPI
}

var _ ports.IdentityVerifier = (*IdentityVerifier)(nil)

func NewIdentityVerifier(cfg aws.Config) *IdentityVerifier {
	return &IdentityVerifier{client: sts.NewFromConfig(cfg)}
}

func (v *IdentityVerifier) VerifyCredentials(ctx context.Context) (string, error) {
	out, err := v.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", classifyIdentityError(err)
	}
	return aws.ToString(out.Account), nil
}

package aws

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
)

func TestRoleARN(t *testing.T) {
	assert.Equal(t,
		"arn:aws:iam::111111111111:role/AriaIdCInventoryAccessRole-LimitedReadOnly",
		RoleARN("aws", "111111111111", "AriaIdCInventoryAccessRole-LimitedReadOnly"))
	assert.Equal(t,
		"arn:aws-us-gov:iam::222222222222:role/r",
		RoleARN("aws-us-gov", "222222222222", "r"))
}

func TestAssumeRoleConfig_KeepsBaseConfig(t *testing.T) {
	base := aws.Config{Region: "eu-west-1"}

	assumed := AssumeRoleConfig(base, "arn:aws:iam::111111111111:role/r", "aria-inventory")

	assert.Equal(t, "eu-west-1", assumed.Region)
	assert.NotNil(t, assumed.Credentials)
	assert.Nil(t, base.Credentials)
}

package database

import (
	"tradeledger/src/config"
	aws_handler "tradeledger/src/utils/aws"
)

// SecretsFromConfig returns an AWS Secrets Manager client when the database
// password is stored as a secret, nil otherwise.
func SecretsFromConfig(sqlCfg config.SQLConfig) (SecretGetter, error) {
	if sqlCfg.PasswordSecretID == "" {
		return nil, nil
	}
	handler, err := aws_handler.NewAWSHandler(sqlCfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	return handler.SecretManager, nil
}

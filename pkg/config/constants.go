package config

const (
	// EnvPrefix scopes every environment variable the service reads.
	EnvPrefix = "GOLDYS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "GOLDYS_DB_DSN"
	EnvDBHost = "GOLDYS_DB_HOST"
	EnvDBUser = "GOLDYS_DB_USER"
	EnvDBName = "GOLDYS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

package config

const EnvPrefix = "QUICKCART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "QUICKCART_DB_DSN"
	EnvDBHost = "QUICKCART_DB_HOST"
	EnvDBUser = "QUICKCART_DB_USER"
	EnvDBName = "QUICKCART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

package config

const (
	EnvPrefix = "STOCKLEDGER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:stockledger.db?cache=shared&_foreign_keys=on"
)

const (
	EnvAppEnv             = "STOCKLEDGER_APP_ENV"
	EnvPort               = "STOCKLEDGER_APP_PORT"
	EnvDBDSN              = "STOCKLEDGER_DB_DSN"
	EnvDBDriver           = "STOCKLEDGER_DB_DRIVER"
	EnvDBHost             = "STOCKLEDGER_DB_HOST"
	EnvDBUser             = "STOCKLEDGER_DB_USER"
	EnvDBName             = "STOCKLEDGER_DB_NAME"
	EnvDBPassword         = "STOCKLEDGER_DB_PASSWORD"
	EnvRedisURL           = "STOCKLEDGER_REDIS_URL"
	EnvUseSQLite          = "STOCKLEDGER_USE_SQLITE"
	EnvLockTTL            = "STOCKLEDGER_POSTING_LOCK_TTL"
	EnvGCPProjectID       = "STOCKLEDGER_GCP_PROJECT_ID"
	EnvDomainTopic        = "STOCKLEDGER_PUBSUB_DOMAIN_TOPIC"
	EnvDomainSubscription = "STOCKLEDGER_PUBSUB_DOMAIN_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

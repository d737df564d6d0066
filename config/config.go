package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"corpus-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	Version                       string   `env:"VERSION" env-default:"dev"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// PostgreSQL (catalog database)
	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"corpus"`
	DatabaseSSLMode               string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Redis (merge locks)
	RedisHost     string `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	// Kafka
	KafkaBrokers              []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaIndexTopic           string   `env:"KAFKA_INDEX_TOPIC" env-default:"index-records"`
	KafkaReindexTopic         string   `env:"KAFKA_REINDEX_TOPIC" env-default:"reindex-requests"`
	KafkaReindexConsumerGroup string   `env:"KAFKA_REINDEX_CONSUMER_GROUP" env-default:"corpus-reindex-consumer"`
	KafkaEntityChangeTopic    string   `env:"KAFKA_ENTITY_CHANGE_TOPIC" env-default:"entity-changes"`
	KafkaEntityConsumerGroup  string   `env:"KAFKA_ENTITY_CONSUMER_GROUP" env-default:"corpus-entity-consumer"`
	KafkaConsumerEnabled      bool     `env:"KAFKA_CONSUMER_ENABLED" env-default:"true"`

	// Merging
	ScriptActor      string        `env:"SCRIPT_ACTOR" env-default:"script"`
	MergeLockTTL     time.Duration `env:"MERGE_LOCK_TTL" env-default:"30s"`
	MergeLockTimeout time.Duration `env:"MERGE_LOCK_TIMEOUT" env-default:"5s"`

	// Tracing
	TracingEnabled      bool   `env:"TRACING_ENABLED" env-default:"false"`
	TracingExporterType string `env:"TRACING_EXPORTER_TYPE" env-default:"noop"`
	TracingEndpoint     string `env:"TRACING_ENDPOINT" env-default:""`
	TracingInsecure     bool   `env:"TRACING_INSECURE" env-default:"true"`
}

package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,required=true"`
	Port                 int           `env:"PORT,required=true"`
	LogLevel             string        `env:"LOG_LEVEL,required=true"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	SessionDuration      time.Duration `env:"SESSION_DURATION,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	EventBufferSize      int           `env:"EVENT_BUFFER_SIZE,required=true"`
	HealthInterval       time.Duration `env:"HEALTH_INTERVAL,required=true"`
	AuditBatchSize       int           `env:"AUDIT_BATCH_SIZE,required=true"`
	AuditFlushInterval   time.Duration `env:"AUDIT_FLUSH_INTERVAL,required=true"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,required=true"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	CensoredFilepath     string        `env:"CENSORED_FILEPATH,required=true"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,required=true"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

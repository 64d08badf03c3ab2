package constants

import "time"

const (
	RemoteAPITimeout = 10 * time.Second
	DatabaseTimeout  = 5 * time.Second
	RequestTimeout   = 30 * time.Second

	// Sensor reads are fire-and-await with a short leash: a stroke is
	// recorded without a location rather than blocking on a fix.
	SensorTimeout = 3 * time.Second
)

const (
	DBMaxOpenConns    = 1 // single-owner store, SQLite
	DBMaxIdleConns    = 1
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// RoundIDDateLayout is the calendar-date key rounds are named after.
	RoundIDDateLayout = "02-01-2006"
)

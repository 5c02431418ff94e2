package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/skerrick/gantry/pkg/database"
)

const docMigrate = `Apply postgres schema migrations`

type optsMigrate struct {
	optsGeneral
	optsDatabase

	WaitRetries int           `long:"wait-retries" env:"WAIT_RETRIES" default:"10" description:"How many times to ping the database before giving up"`
	WaitDelay   time.Duration `long:"wait-delay" env:"WAIT_DELAY" default:"2s" description:"Delay between pings"`
}

func (c *optsMigrate) Execute(args []string) error {
	// Only the postgres store uses versioned migrations; sqlite creates its
	// schema on open and the memory store has none.
	if !strings.HasPrefix(c.DatabaseURL, "postgres://") {
		return fmt.Errorf("migrate requires a postgres:// database url, got %q", c.DatabaseURL)
	}
	log := newLogger(c.Debug)

	if err := database.WaitForDatabase(c.DatabaseURL, c.WaitRetries, c.WaitDelay); err != nil {
		return err
	}
	if err := database.Migrate(c.DatabaseURL); err != nil {
		return err
	}
	log.Info("migrations applied")
	return nil
}

package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/dealkeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-r string   Redis address for the session ledger
//	-p string   Redis password
//	-n int      Redis database number
//	-s string   JWT HMAC secret key
//	-w int      bcrypt cost for password hashing
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-r", "-p", "-n", "-s", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.RedisPassword, "p", config.RedisPassword, "redis password")
	fs.IntVar(&config.RedisDB, "n", config.RedisDB, "redis database number")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.IntVar(&config.BcryptCost, "w", config.BcryptCost, "bcrypt cost")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

// Package config parses the server's command-line flags. Every flag can
// also be set through a POKESTOCK_* environment variable; flags win.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// Config is the server configuration.
type Config struct {
	DBPath   string
	Addr     string
	LogPath  string
	RedisURL string
	BaseURL  string
	Email    string
}

const usage = `Usage: pokestock [flags]

Flags:
  -d, -db <path>          SQLite database path (default: pokestock.sqlite3, env POKESTOCK_DB)
  -a, -addr <host:port>   listen address (default: :8080, env POKESTOCK_ADDR)
  -e, -email <address>    account email on first run (default: admin@localhost, env POKESTOCK_EMAIL)
  -l, -log <path>         log file path (default: stdout/stderr only, env POKESTOCK_LOG)
  -r, -redis <url>        Redis URL for sharing the change feed between instances (env POKESTOCK_REDIS)
  -b, -base-url <url>     public URL used in sign-in links (default: http://localhost:8080, env POKESTOCK_BASE_URL)
  -h, -help               show this help and exit
`

// Load parses args with environment fallbacks. It returns flag.ErrHelp
// after printing usage for -h.
func Load(args []string, getenv func(string) string, out io.Writer) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	fs := flag.NewFlagSet("pokestock", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { fmt.Fprint(out, usage) }

	cfg := &Config{}
	stringVar(fs, &cfg.DBPath, "db", "d", env("POKESTOCK_DB", "pokestock.sqlite3"))
	stringVar(fs, &cfg.Addr, "addr", "a", env("POKESTOCK_ADDR", ":8080"))
	stringVar(fs, &cfg.Email, "email", "e", env("POKESTOCK_EMAIL", "admin@localhost"))
	stringVar(fs, &cfg.LogPath, "log", "l", env("POKESTOCK_LOG", ""))
	stringVar(fs, &cfg.RedisURL, "redis", "r", env("POKESTOCK_REDIS", ""))
	stringVar(fs, &cfg.BaseURL, "base-url", "b", env("POKESTOCK_BASE_URL", "http://localhost:8080"))

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}

func stringVar(fs *flag.FlagSet, p *string, long, short, def string) {
	fs.StringVar(p, long, def, "")
	fs.StringVar(p, short, def, "")
}

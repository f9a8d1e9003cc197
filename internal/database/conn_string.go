package database

import (
	"net"
	"net/url"
	"strconv"

	"github.com/rickgao/tradergrail/internal/config"
)

// ApplicationName is reported to Postgres for every pooled connection.
const ApplicationName = "tradergrail"

// BuildConnString builds a PostgreSQL URL from config. Credentials are
// escaped so pooler users ("postgres.<ref>") and passwords with reserved
// characters survive parsing.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("application_name", ApplicationName)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

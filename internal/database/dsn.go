package database

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"caixa-senhas-backend/internal/apperr"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ConnInfo is a parsed connection string of the form
// scheme://[user[:password]@]host:port/database?apikey=<key>&...
type ConnInfo struct {
	Scheme   string
	User     string
	Password string
	Host     string
	Port     string
	Database string
	APIKey   string
	Params   url.Values // parâmetros restantes, sem a apikey
}

func ParseConnectionString(raw string) (ConnInfo, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ConnInfo{}, apperr.New(apperr.KindConnection, "string de conexão vazia")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		// O erro de url.Parse repete a string inteira, inclusive a apikey.
		return ConnInfo{}, apperr.New(apperr.KindConnection, "string de conexão inválida")
	}

	info := ConnInfo{
		Scheme: strings.ToLower(u.Scheme),
		Host:   u.Hostname(),
		Port:   u.Port(),
		Params: u.Query(),
	}
	if u.User != nil {
		info.User = u.User.Username()
		info.Password, _ = u.User.Password()
	}
	info.APIKey = info.Params.Get("apikey")
	info.Params.Del("apikey")

	switch {
	case u.Opaque != "":
		// sqlite:caixa.db
		info.Database = u.Opaque
	case info.Host == "" && u.Path != "":
		// sqlite:///var/lib/caixa.db
		info.Database = u.Path
	default:
		info.Database = strings.TrimPrefix(u.Path, "/")
	}

	if info.Host == "" && info.Database == "" {
		return ConnInfo{}, apperr.New(apperr.KindConnection, "string de conexão sem host nem banco")
	}
	return info, nil
}

// Redacted renders the connection string with every credential masked.
func (c ConnInfo) Redacted() string {
	var b strings.Builder
	b.WriteString(c.Scheme)
	b.WriteString("://")
	if c.User != "" {
		b.WriteString(c.User)
		if c.Password != "" {
			b.WriteString(":***")
		}
		b.WriteString("@")
	}
	b.WriteString(c.Host)
	if c.Port != "" {
		b.WriteString(":" + c.Port)
	}
	if c.Host != "" && c.Database != "" {
		b.WriteString("/")
	}
	b.WriteString(c.Database)
	if c.APIKey != "" {
		b.WriteString("?apikey=***")
	}
	return b.String()
}

// Dialector selects the GORM driver for the connection string's scheme.
func Dialector(info ConnInfo) (gorm.Dialector, error) {
	switch info.Scheme {
	case "postgres", "postgresql":
		return postgres.Open(info.postgresDSN()), nil
	case "sqlite", "file":
		return sqlite.Open(info.sqliteDSN()), nil
	default:
		return nil, apperr.New(apperr.KindConnection, fmt.Sprintf("esquema de conexão não suportado: %s", info.Scheme))
	}
}

// postgresDSN builds a key/value DSN. The apikey stands in for the password
// when none is given in the userinfo.
func (c ConnInfo) postgresDSN() string {
	kv := map[string]string{
		"host":   c.Host,
		"port":   c.Port,
		"dbname": c.Database,
		"user":   c.User,
	}
	password := c.Password
	if password == "" {
		password = c.APIKey
	}
	kv["password"] = password
	if kv["port"] == "" {
		kv["port"] = "5432"
	}
	if _, ok := c.Params["sslmode"]; !ok {
		kv["sslmode"] = "require"
	}
	for k := range c.Params {
		kv[k] = c.Params.Get(k)
	}

	keys := make([]string, 0, len(kv))
	for k, v := range kv {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s='%s'", k, escapeDSNValue(kv[k])))
	}
	return strings.Join(parts, " ")
}

func (c ConnInfo) sqliteDSN() string {
	name := c.Database
	switch {
	case c.Host != "" && c.Database != "":
		// sqlite://data/caixa.db
		name = c.Host + "/" + c.Database
	case c.Host != "":
		// sqlite://caixa.db
		name = c.Host
	}
	params := url.Values{}
	for k, v := range c.Params {
		params[k] = v
	}
	if !params.Has("_pragma") {
		params.Add("_pragma", "foreign_keys(1)")
		params.Add("_pragma", "busy_timeout(5000)")
	}
	return name + "?" + params.Encode()
}

func escapeDSNValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}

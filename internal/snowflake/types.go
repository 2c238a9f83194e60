package snowflake

import (
	"strings"
)

// Config holds Snowflake warehouse connection settings
type Config struct {
	Account   string `yaml:"account"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Warehouse string `yaml:"warehouse"`
}

// ParseConnectionString extracts components from an ODBC-style connection
// string.
// Format: scheme=https;ACCOUNT=xxx;HOST=yyy;port=443;USER=zzz;PASSWORD=www;DB=aaa.bbb;WAREHOUSE=ccc
func ParseConnectionString(connStr string) Config {
	parts := make(map[string]string)
	for _, field := range strings.Split(connStr, ";") {
		key, value, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			continue
		}
		parts[strings.ToUpper(strings.TrimSpace(key))] = value
	}

	// DB may carry database.schema
	database, schema, _ := strings.Cut(parts["DB"], ".")

	return Config{
		Account:   parts["ACCOUNT"],
		User:      parts["USER"],
		Password:  parts["PASSWORD"],
		Database:  database,
		Schema:    schema,
		Warehouse: parts["WAREHOUSE"],
	}
}

package configlibsql

import (
	"database/sql"
	"fmt"
	"net/url"

	devenv "guildexp/dev/env"
	"guildexp/pkg/migrations"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Struct selects where the database lives. When Url is set the database is a
// remote libsql (Turso / sqld) instance, otherwise File is opened as a local sqlite db.
type Struct struct {
	File      string `json:"file" env:"FILE"`
	Url       string `json:"url" env:"URL"`
	AuthToken string `json:"auth_token" env:"AUTH_TOKEN"`
}

func (config Struct) OpenDB(schema string) (*sql.DB, error) {
	if config.Url != "" {
		return config.openRemote(schema)
	}

	if config.File == "" {
		return nil, fmt.Errorf("a path was not specified")
	}
	dbpath, err := devenv.ResolvePath(config.File)
	if err != nil {
		return nil, err
	}
	return migrations.OpenAndMigrateDB(schema, dbpath)
}

func (config Struct) openRemote(schema string) (*sql.DB, error) {
	dsn, err := url.Parse(config.Url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if config.AuthToken != "" {
		query := dsn.Query()
		query.Set("authToken", config.AuthToken)
		dsn.RawQuery = query.Encode()
	}

	db, err := sql.Open("libsql", dsn.String())
	if err != nil {
		return nil, err
	}
	err = migrations.Migrate(db, schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

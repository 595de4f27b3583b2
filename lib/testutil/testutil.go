package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	devenv "guildexp/dev/env"
	"guildexp/lib/telemetry"
	"guildexp/pkg/migrations"

	"github.com/mazen160/go-random"
	_ "modernc.org/sqlite"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip setting up a db
	DbSchema string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	DB *sql.DB
}

// SetupService prepares telemetry and an isolated database for a test, the
// returned function must be called once the test is done.
func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	cleanupTelemetry := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))
	if params.DbSchema == "" {
		return ServiceResult{}, cleanupTelemetry
	}

	dbpath := ":memory:"
	if params.DbPath != "" && params.DbPath != ":memory:" {
		var err error
		dbpath, err = devenv.ResolvePath(params.DbPath)
		if err != nil {
			t.Fatal(err)
		}
	}
	// OpenDB limits the pool to one connection, which also keeps every
	// query on the same :memory: database.
	db, err := migrations.OpenAndMigrateDB(params.DbSchema, dbpath)
	if err != nil {
		t.Fatal(err)
	}

	return ServiceResult{DB: db}, func() {
		db.Close()
		cleanupTelemetry()
	}
}

// RandomString returns a random alphanumeric string of length n.
func RandomString(t testing.TB, n int) string {
	out, err := random.String(n)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

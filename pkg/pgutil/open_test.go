package pgutil

import "testing"

func TestConfigDSN(t *testing.T) {
	c := Config{
		Host:     "db",
		Port:     "6543",
		User:     "fatfs",
		Password: "secret",
		DBName:   "images",
		SSLMode:  "require",
	}
	wanted := "host=db port=6543 user=fatfs password=secret dbname=images " +
		"sslmode=require"
	if found := c.DSN(); found != wanted {
		t.Fatalf("DSN(): wanted `%s`; found `%s`", wanted, found)
	}
}

func TestEnvConfigDefaults(t *testing.T) {
	for _, env := range []string{
		"PG_HOST",
		"PG_PORT",
		"PG_USER",
		"PG_PASS",
		"PG_DB_NAME",
		"PG_SSL_MODE",
	} {
		t.Setenv(env, "")
	}
	t.Setenv("PG_PORT", "15432")

	found := EnvConfig()
	wanted := Config{
		Host:    "localhost",
		Port:    "15432",
		User:    "postgres",
		DBName:  "postgres",
		SSLMode: "disable",
	}
	if found != wanted {
		t.Fatalf("EnvConfig(): wanted `%+v`; found `%+v`", wanted, found)
	}
}

package main

import "os"

const defaultMigrationsDir = "db/migrations"

// migrationsDir honours MIGRATIONS_DIR so the binary can run outside the repo root.
func migrationsDir() string {
	if dir, ok := os.LookupEnv("MIGRATIONS_DIR"); ok && dir != "" {
		return dir
	}
	return defaultMigrationsDir
}

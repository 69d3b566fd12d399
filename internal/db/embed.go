package db

import "embed"

// EmbedMigrations holds the document store schema migrations, compiled into
// the binary so the server and groupsctl migrate without external files.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS

package migrations

import "embed"

// Migrations holds the client state schema.
//
//go:embed *.sql
var Migrations embed.FS

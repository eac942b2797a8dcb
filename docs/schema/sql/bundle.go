// Package sqldocs exposes the observations export DDL bundles directly from
// the docs tree, so the ETL and the SQL dataset sources share one column
// contract.
package sqldocs

import _ "embed"

// SQLite contains the observations table DDL for sqlite exports.
//
//go:embed observations.sqlite.sql
var SQLite string

// Postgres contains the observations table DDL for postgres exports.
//
//go:embed observations.postgres.sql
var Postgres string

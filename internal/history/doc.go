// Package history keeps a SQLite ledger of pipeline runs.
//
// Each run is recorded when it starts and updated when it ends with its
// status, the failing stage and the exit status reported to the shell. The
// ledger backs `vodsub history` and never affects pipeline behaviour: a run
// whose ledger write fails still completes.
//
// Schema lives in schema.sql. Changing it requires bumping schemaVersion;
// older databases are rejected with ErrSchemaMismatch.
package history

// Package history records batch conversion runs and per-chart results in
// SQLite so failures can be reviewed after the console output is gone.
//
// Each batch run gets a uuid and a row in runs; every chart the run touches
// adds a row to results. Schema changes bump schemaVersion in schema.go;
// users delete the database to adopt a new schema.
package history

// Package pipeline provides schema mapping, validation, and cleaning for
// raw bike-share trip data.
//
// # Architecture
//
// The package is organized into three main components:
//
// 1. Mapper: applies a declared ColumnRoles mapping once at the pipeline
// boundary, turning raw header+rows tables into the canonical dataset
// shape. Columns absent from a file stay unbound; values that fail to
// coerce become nulls and are reported, never fatal.
//
// 2. Validator: produces a read-only report of structural issues (missing
// required columns, empty dataset) and quality warnings (nulls, duplicate
// ride IDs, non-positive durations, out-of-bounds coordinates).
//
// 3. Cleaner: runs the fixed six-stage cleaning pipeline (deduplicate,
// timestamps, geographic, duration, standardize, fill_stations). Stages
// whose input columns are unbound degrade to no-ops, and every stage is
// idempotent.
//
// Example usage:
//
//	mapper := pipeline.NewMapper(pipeline.DefaultColumnRoles(), logger)
//	ds := mapper.Map(header, rows)
//
//	validator := pipeline.NewValidator(cfg.Cleaning, logger)
//	report := validator.Validate(ds)
//
//	cleaner := pipeline.NewCleaner(cfg.Cleaning, logger)
//	cleaned, cleaningReport := cleaner.Clean(ds)
package pipeline

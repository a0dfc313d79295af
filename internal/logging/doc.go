// Package logging provides opt-in file-based logging with rotation for validate.
// When the --debug flag is set, structured logs of every phase and check are
// written to ~/.validate/logs/validate.log.
//
// By default (without --debug) a discard logger is used so the report stays
// the only output.
package logging

// Package preflight checks that the directories vox2ksh reads from and writes
// to are usable before a batch starts.
//
// The CLI "preflight" command prints every result; "batch" runs the same
// checks and refuses to start when a required one fails. Media directories
// are only checked when media copying is enabled, and their failures are
// reported as warnings.
package preflight

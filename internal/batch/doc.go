// Package batch discovers VOX charts, converts them on a worker pool and
// records every outcome.
//
// Charts are sharded by song id so a song directory is only ever written by
// one worker. A file lock on the output directory keeps two batch processes
// apart. Each run gets its own JSON log under <log_dir>/runs and a row in the
// history store.
package batch

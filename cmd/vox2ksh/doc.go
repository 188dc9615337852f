// Command vox2ksh converts Sound Voltex VOX charts into KShoot Mania KSH
// charts. It converts single files or whole chart directories, records every
// batch in a local history database and checks the configured directories
// before a run.
package main

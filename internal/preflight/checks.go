package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"vox2ksh/internal/musicdb"
)

// Access is the permission a directory check requires.
type Access int

const (
	Read Access = iota
	ReadWrite
)

func (a Access) mode() uint32 {
	if a == ReadWrite {
		return unix.R_OK | unix.W_OK | unix.X_OK
	}
	return unix.R_OK | unix.X_OK
}

func (a Access) String() string {
	if a == ReadWrite {
		return "read/write"
	}
	return "read"
}

// CheckDirectoryAccess verifies that the directory exists with the requested
// access.
func CheckDirectoryAccess(name, path string, access Access) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, access.mode()); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s ok)", path, access)}
}

// CheckCreatableDirectory passes when path is a writable directory, or when
// it does not exist yet and its nearest existing parent is writable.
func CheckCreatableDirectory(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path, ReadWrite)
	}
	parent := filepath.Dir(path)
	for {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		next := filepath.Dir(parent)
		if next == parent {
			break
		}
		parent = next
	}
	if err := unix.Access(parent, ReadWrite.mode()); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, parent, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckMusicDB verifies that the music database can be found. It does not
// parse it.
func CheckMusicDB(dir string, merge bool) Result {
	const name = "Music database"

	primary := filepath.Join(dir, musicdb.DefaultFileName)
	if _, err := os.Stat(primary); err == nil {
		return Result{Name: name, Passed: true, Detail: primary}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", primary, err)}
	}
	if merge {
		matches, _ := filepath.Glob(filepath.Join(dir, "*.xml"))
		if len(matches) > 0 {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d file(s) in %s, no %s", len(matches), dir, musicdb.DefaultFileName)}
		}
	}
	return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", primary)}
}

//go:build !unix

package maildir

import "os"

// isCrossDevice reports whether a rename failed because source and
// destination are on different volumes. Without EXDEV, any link error
// other than a missing file is treated as one.
func isCrossDevice(err error) bool {
	_, ok := err.(*os.LinkError)
	return ok && !os.IsNotExist(err)
}

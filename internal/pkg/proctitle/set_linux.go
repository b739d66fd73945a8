//go:build linux

package proctitle

import (
	"errors"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// PR_SET_NAME truncates at 15 bytes plus NUL.
const procNameMax = 15

// Set renames the process so masters and workers are distinguishable in ps
// output.
func Set(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("empty process title")
	}

	if len(os.Args) > 0 {
		os.Args[0] = title
	}

	b := make([]byte, procNameMax+1)
	copy(b, title)
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&b[0])), 0, 0, 0)
}

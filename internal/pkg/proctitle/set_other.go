//go:build !linux

package proctitle

import (
	"errors"
	"os"
	"strings"
)

// Set updates os.Args[0] only; non-Linux platforms have no portable way to
// rename a running process.
func Set(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("empty process title")
	}
	if len(os.Args) > 0 {
		os.Args[0] = title
	}
	return nil
}

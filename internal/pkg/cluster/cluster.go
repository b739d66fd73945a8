package cluster

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

const (
	EnvRole     = "SOLSTICE_CLUSTER_ROLE"
	EnvWorkerID = "SOLSTICE_CLUSTER_WORKER_ID"

	RoleMaster = "master"
	RoleWorker = "worker"
)

// Options configures cluster mode. With Enable false the process runs
// single-instance and Run calls workerMain directly.
type Options struct {
	Enable  bool
	Workers int // 0 = one per CPU
}

// IsWorker reports whether this process was spawned by a cluster master.
func IsWorker() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(EnvRole)), RoleWorker)
}

// WorkerID returns the 1-based worker number, or 0 outside cluster mode.
func WorkerID() int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(EnvWorkerID)))
	if err != nil || v < 1 {
		return 0
	}
	return v
}

// ShouldRunCron keeps scheduled jobs single-run across clustered workers:
// only worker 1 (or the sole process outside cluster mode) runs them.
func ShouldRunCron() bool {
	if IsWorker() {
		return WorkerID() == 1
	}
	return true
}

func validateOptions(opts Options) error {
	if opts.Enable && opts.Workers < 0 {
		return errors.New("cluster workers must be >= 0")
	}
	return nil
}

package cluster

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// killGrace is how long the master waits after forwarding a shutdown signal
// before force-killing stragglers.
const killGrace = 8 * time.Second

type workerExit struct {
	id   int
	pid  int
	code int
}

// Run enters cluster mode when enabled: the master re-execs itself N times
// with worker env vars set and supervises the children. Workers (and
// non-cluster processes) just run workerMain.
func Run(logger *zap.Logger, opts Options, workerMain func() error) error {
	if workerMain == nil {
		return errors.New("workerMain is nil")
	}
	if err := validateOptions(opts); err != nil {
		return err
	}
	if !opts.Enable || IsWorker() {
		return workerMain()
	}
	return supervise(logger, opts.Workers)
}

func supervise(logger *zap.Logger, requestedWorkers int) error {
	count := workerCount(requestedWorkers)
	logger.Info("cluster mode enabled",
		zap.Int("master_pid", os.Getpid()),
		zap.Int("workers", count),
	)

	exitCh := make(chan workerExit, count*2)
	workers := make(map[int]*exec.Cmd, count)

	start := func(id int) error {
		cmd, err := spawnWorker(id)
		if err != nil {
			return err
		}
		workers[id] = cmd
		logger.Info("worker started", zap.Int("worker_id", id), zap.Int("pid", cmd.Process.Pid))

		go func(id, pid int, c *exec.Cmd) {
			err := c.Wait()
			exitCh <- workerExit{id: id, pid: pid, code: exitCode(err)}
		}(id, cmd.Process.Pid, cmd)
		return nil
	}

	for i := 1; i <= count; i++ {
		if err := start(i); err != nil {
			killAll(workers, logger)
			return err
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	stopping := false
	var killTimer <-chan time.Time

	for len(workers) > 0 {
		select {
		case sig := <-sigCh:
			if stopping {
				continue
			}
			stopping = true
			logger.Info("cluster shutting down", zap.String("signal", sig.String()))
			for id, cmd := range workers {
				if err := cmd.Process.Signal(os.Interrupt); err != nil {
					logger.Warn("signal worker failed", zap.Int("worker_id", id), zap.Error(err))
				}
			}
			killTimer = time.After(killGrace)

		case <-killTimer:
			killAll(workers, logger)
			killTimer = nil

		case ex := <-exitCh:
			cmd, ok := workers[ex.id]
			if !ok || cmd.Process.Pid != ex.pid {
				continue
			}
			delete(workers, ex.id)
			logger.Info("worker exited", zap.Int("worker_id", ex.id), zap.Int("pid", ex.pid), zap.Int("code", ex.code))

			if !stopping && ex.code != 0 {
				logger.Warn("worker crashed, restarting", zap.Int("worker_id", ex.id))
				if err := start(ex.id); err != nil {
					return err
				}
			}
		}
	}

	logger.Info("cluster master exited")
	return nil
}

func spawnWorker(id int) (*exec.Cmd, error) {
	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}

	cmd := exec.Command(executable, os.Args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		EnvRole+"="+RoleWorker,
		EnvWorkerID+"="+strconv.Itoa(id),
	)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker %d: %w", id, err)
	}
	return cmd, nil
}

func killAll(workers map[int]*exec.Cmd, logger *zap.Logger) {
	for id, cmd := range workers {
		if err := cmd.Process.Kill(); err != nil {
			logger.Warn("kill worker failed", zap.Int("worker_id", id), zap.Error(err))
			continue
		}
		logger.Warn("worker force killed", zap.Int("worker_id", id), zap.Int("pid", cmd.Process.Pid))
	}
}

func workerCount(requested int) int {
	cpus := runtime.NumCPU()
	if requested <= 0 || requested > cpus {
		return cpus
	}
	return requested
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

const pidFileName = "ollie-scraper.pid"

// PIDFile tracks the background watcher's process id on disk so that later
// invocations of the CLI can stop it or report its status.
type PIDFile struct {
	path string
}

func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// DefaultPIDFile places the PID file next to the executable, falling back
// to the working directory when the executable path cannot be resolved.
func DefaultPIDFile() *PIDFile {
	dir := "."
	if exe, err := os.Executable(); err == nil {
		dir = filepath.Dir(exe)
	}
	return NewPIDFile(filepath.Join(dir, pidFileName))
}

func (p *PIDFile) Path() string {
	return p.path
}

func (p *PIDFile) Write(pid int) error {
	return os.WriteFile(p.path, []byte(strconv.Itoa(pid)), 0644)
}

// Read returns the recorded PID, or false when the file is missing or
// holds garbage.
func (p *PIDFile) Read() (int, bool) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

func (p *PIDFile) Remove() error {
	err := os.Remove(p.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Status describes the background watcher process, if one is running.
type Status struct {
	Running bool
	PID     int
	Uptime  time.Duration
}

// CurrentStatus inspects the PID file and the process table.
func CurrentStatus(pidFile *PIDFile) Status {
	pid, ok := pidFile.Read()
	if !ok {
		return Status{}
	}
	if !isRunning(pid) {
		return Status{PID: pid}
	}
	return Status{Running: true, PID: pid, Uptime: uptime(pid)}
}

// Start re-executes the current binary as a detached foreground runner and
// records its PID. extraArgs are forwarded to the child's run command.
func Start(pidFile *PIDFile, extraArgs ...string) (int, error) {
	if pid, ok := pidFile.Read(); ok && isRunning(pid) {
		return 0, fmt.Errorf("already running with PID %d", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("resolving executable: %w", err)
	}

	args := append([]string{"run"}, extraArgs...)
	cmd := exec.Command(exe, args...)
	// Stdin/stdout/stderr default to the null device; the child logs are
	// intentionally discarded, matching daemon mode's detached semantics.
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("spawning daemon: %w", err)
	}
	pid := cmd.Process.Pid
	if err := pidFile.Write(pid); err != nil {
		return pid, fmt.Errorf("writing PID file: %w", err)
	}
	// The child outlives this process; let init reap it.
	_ = cmd.Process.Release()
	return pid, nil
}

// Stop terminates the recorded process with SIGTERM and removes the PID
// file. A stale PID file (process already gone) is cleaned up and reported
// as an error so the caller can tell the user nothing was running.
func Stop(pidFile *PIDFile) error {
	pid, ok := pidFile.Read()
	if !ok {
		return fmt.Errorf("no PID file at %s; is the watcher running?", pidFile.Path())
	}
	if !isRunning(pid) {
		_ = pidFile.Remove()
		return fmt.Errorf("process %d is not running; cleaned up stale PID file", pid)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("stopping process %d: %w", pid, err)
	}
	return pidFile.Remove()
}

func isRunning(pid int) bool {
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}

// uptime derives the process age from its create time. Returns zero when
// the process table cannot be read.
func uptime(pid int) time.Duration {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return 0
	}
	createdMs, err := proc.CreateTime()
	if err != nil {
		return 0
	}
	created := time.UnixMilli(createdMs)
	return time.Since(created).Round(time.Second)
}

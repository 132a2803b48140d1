package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/polyrun/polyrun/config"
	"github.com/polyrun/polyrun/container"
	"github.com/polyrun/polyrun/language"
)

// Channel classifies an output line.
type Channel string

const (
	ChannelStdout Channel = "stdout"
	ChannelStderr Channel = "stderr"
	ChannelSystem Channel = "system"
)

// LineFunc receives output lines as soon as they are complete, tagged with
// their channel.
type LineFunc func(line string, channel Channel)

// Result is the terminal outcome of one run.
type Result struct {
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// ErrBusy is returned synchronously when a run is requested while another is
// in flight. No side effects are performed for the rejected request.
var ErrBusy = errors.New("an execution is already in progress")

const failureExitCode = 1

// Executor is the surface transports consume.
type Executor interface {
	Run(ctx context.Context, code, languageID, rawDeps string, onLine LineFunc) (Result, error)
	Languages() []language.Info
	CheckHealth(ctx context.Context) error
}

// Config is the resource envelope every execution runs under.
type Config struct {
	Image       string
	Timeout     time.Duration
	MemoryBytes int64
	CPUQuota    int64
	CPUPeriod   int64
	PidsLimit   int64
	NetworkMode string
	User        string

	// StagingRoot is where per-session staging directories are created.
	// Defaults to the OS temp directory.
	StagingRoot string
}

// ConfigFrom derives the runner configuration from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Image:       cfg.Runner.Image,
		Timeout:     cfg.GetTimeout(),
		MemoryBytes: cfg.MemoryBytes(),
		CPUQuota:    cfg.Runner.CPUQuota,
		CPUPeriod:   cfg.Runner.CPUPeriod,
		PidsLimit:   cfg.Runner.PidsLimit,
		NetworkMode: cfg.Runner.NetworkMode,
		User:        cfg.Runner.User,
	}
}

// Runner orchestrates execution sessions one at a time.
type Runner struct {
	log       *zap.Logger
	cfg       Config
	languages *language.Registry
	client    container.Client
	busy      atomic.Bool
}

// New constructs a Runner.
func New(log *zap.Logger, cfg Config, languages *language.Registry, client container.Client) *Runner {
	return &Runner{
		log:       log,
		cfg:       cfg,
		languages: languages,
		client:    client,
	}
}

// Languages returns the public metadata of every supported language.
func (r *Runner) Languages() []language.Info {
	return r.languages.List()
}

// CheckHealth reports whether the container engine is reachable.
func (r *Runner) CheckHealth(ctx context.Context) error {
	return r.client.Ping(ctx)
}

// Run executes one piece of code. Lines of output are forwarded to onLine as
// they arrive; the returned result is terminal. Every failure except a busy
// rejection is reported through onLine as a system line plus a failure exit
// code rather than an error.
func (r *Runner) Run(ctx context.Context, code, languageID, rawDeps string, onLine LineFunc) (Result, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer r.busy.Store(false)

	start := time.Now()
	sess := newSession(onLine)

	spec, ok := r.languages.Get(languageID)
	if !ok {
		sess.notice("Error: unsupported language %q", languageID)
		return Result{ExitCode: failureExitCode, Duration: time.Since(start)}, nil
	}

	r.log.Info("execution started",
		zap.String("session", sess.id),
		zap.String("language", spec.ID))

	result := r.execute(ctx, sess, spec, code, language.SplitDependencies(rawDeps))
	result.Duration = time.Since(start)

	r.log.Info("execution finished",
		zap.String("session", sess.id),
		zap.String("language", spec.ID),
		zap.Int("exit_code", result.ExitCode),
		zap.Bool("timed_out", result.TimedOut),
		zap.Duration("duration", result.Duration))

	return result, nil
}

func (r *Runner) execute(ctx context.Context, sess *session, spec language.Spec, code string, deps []string) Result {
	stagingDir := filepath.Join(r.stagingRoot(), "polyrun-"+sess.id)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		sess.notice("Error: stage source: %v", err)
		return Result{ExitCode: failureExitCode}
	}
	defer func() {
		if err := os.RemoveAll(stagingDir); err != nil {
			r.log.Warn("remove staging directory", zap.String("path", stagingDir), zap.Error(err))
		}
	}()

	// World-readable so the non-root container user can open it.
	sourcePath := filepath.Join(stagingDir, spec.SourceFileName)
	if err := os.WriteFile(sourcePath, []byte(code), 0o644); err != nil {
		sess.notice("Error: stage source: %v", err)
		return Result{ExitCode: failureExitCode}
	}

	sess.notice("Language: %s", spec.Label)
	if spec.SupportsDependencies && len(deps) > 0 {
		sess.notice("Installing dependencies: %s", strings.Join(deps, ", "))
	}

	if err := r.client.EnsureImage(ctx, r.cfg.Image); err != nil {
		if errors.Is(err, container.ErrImageNotFound) {
			sess.notice("Error: runtime image %q not found, build the base image first", r.cfg.Image)
		} else {
			sess.notice("Error: %v", err)
		}
		return Result{ExitCode: failureExitCode}
	}

	id, err := r.client.Create(ctx, container.CreateSpec{
		Image:       r.cfg.Image,
		Command:     spec.BuildCommand(deps),
		WorkDir:     language.WorkDir,
		BindSource:  stagingDir,
		BindTarget:  language.MountPath,
		MemoryBytes: r.cfg.MemoryBytes,
		CPUQuota:    r.cfg.CPUQuota,
		CPUPeriod:   r.cfg.CPUPeriod,
		PidsLimit:   r.cfg.PidsLimit,
		NetworkMode: r.cfg.NetworkMode,
		User:        r.cfg.User,
	})
	if err != nil {
		sess.notice("Error: %v", err)
		return Result{ExitCode: failureExitCode}
	}
	defer func() {
		r.client.Remove(context.Background(), id)
		sess.notice("Container destroyed")
	}()

	// Attach before start so the earliest output bytes are not lost.
	stream, err := r.client.Attach(ctx, id)
	if err != nil {
		sess.notice("Error: %v", err)
		return Result{ExitCode: failureExitCode}
	}

	demux := container.NewDemuxer(func(st container.Stream, line string) {
		channel := ChannelStdout
		if st == container.StreamStderr {
			channel = ChannelStderr
		}
		sess.emit(line, channel)
	})

	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		_ = demux.Demux(stream)
		demux.Flush()
	}()
	drain := func() {
		_ = stream.Close()
		<-streamDone
	}

	if err := r.client.Start(ctx, id); err != nil {
		drain()
		sess.notice("Error: %v", err)
		return Result{ExitCode: failureExitCode}
	}
	sess.notice("Container started")

	// Race container exit against the wall-clock deadline. The loser is
	// cancelled: the timer is stopped on exit, the wait context on timeout.
	waitCtx, cancelWait := context.WithCancel(ctx)
	defer cancelWait()

	type exitStatus struct {
		code int64
		err  error
	}
	exited := make(chan exitStatus, 1)
	go func() {
		code, waitErr := r.client.Wait(waitCtx, id)
		exited <- exitStatus{code: code, err: waitErr}
	}()

	timer := time.NewTimer(r.cfg.Timeout)
	defer timer.Stop()

	var exitCode int
	select {
	case st := <-exited:
		if st.err != nil {
			drain()
			sess.notice("Error: %v", st.err)
			return Result{ExitCode: failureExitCode}
		}
		exitCode = int(st.code)
	case <-timer.C:
		sess.timedOut = true
		r.client.Kill(context.Background(), id)
		cancelWait()
	}

	// The container has exited or been killed, so the stream ends; drain it
	// before emitting the terminal notice.
	drain()

	if sess.timedOut {
		sess.notice("Timeout: execution exceeded %s", r.cfg.Timeout)
		return Result{ExitCode: failureExitCode, TimedOut: true}
	}

	if exitCode == 0 {
		sess.notice("Completed successfully")
	} else {
		sess.notice("Exited with code %d", exitCode)
	}
	return Result{ExitCode: exitCode}
}

func (r *Runner) stagingRoot() string {
	if r.cfg.StagingRoot != "" {
		return r.cfg.StagingRoot
	}
	return os.TempDir()
}

// session is the per-run state: a unique token namespacing the staging
// directory, the timed-out flag, and the serialized line callback.
type session struct {
	id       string
	timedOut bool

	mu     sync.Mutex
	onLine LineFunc
}

func newSession(onLine LineFunc) *session {
	return &session{
		id:     uuid.NewString(),
		onLine: onLine,
	}
}

func (s *session) emit(line string, channel Channel) {
	if s.onLine == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLine(line, channel)
}

func (s *session) notice(format string, args ...any) {
	s.emit(fmt.Sprintf(format, args...), ChannelSystem)
}

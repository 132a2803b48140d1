package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/docker/docker/pkg/stdcopy"

	"github.com/polyrun/polyrun/container"
)

// fakeClient scripts the container engine for orchestrator tests.
type fakeClient struct {
	mu sync.Mutex

	pingErr   error
	imageErr  error
	createErr error
	attachErr error
	startErr  error

	attachData []byte
	waitCode   int64
	waitErr    error
	waitBlock  bool

	nextID  int
	created []container.CreateSpec
	started []string
	killed  []string
	removed []string

	// events records the order of attach and start calls.
	events []string

	// startedCh, when set, receives once per Start call.
	startedCh chan struct{}
}

func (f *fakeClient) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeClient) EnsureImage(context.Context, string) error {
	return f.imageErr
}

func (f *fakeClient) Create(_ context.Context, spec container.CreateSpec) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("container-%d", f.nextID)
	f.nextID++
	f.created = append(f.created, spec)
	return id, nil
}

func (f *fakeClient) Attach(context.Context, string) (io.ReadCloser, error) {
	if f.attachErr != nil {
		return nil, f.attachErr
	}
	f.mu.Lock()
	f.events = append(f.events, "attach")
	f.mu.Unlock()
	return io.NopCloser(bytes.NewReader(f.attachData)), nil
}

func (f *fakeClient) Start(_ context.Context, id string) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	f.started = append(f.started, id)
	f.events = append(f.events, "start")
	f.mu.Unlock()
	if f.startedCh != nil {
		f.startedCh <- struct{}{}
	}
	return nil
}

func (f *fakeClient) Wait(ctx context.Context, _ string) (int64, error) {
	if f.waitBlock {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return f.waitCode, f.waitErr
}

func (f *fakeClient) Kill(_ context.Context, id string) {
	f.mu.Lock()
	f.killed = append(f.killed, id)
	f.mu.Unlock()
}

func (f *fakeClient) Remove(_ context.Context, id string) {
	f.mu.Lock()
	f.removed = append(f.removed, id)
	f.mu.Unlock()
}

func (f *fakeClient) Close() error {
	return nil
}

func (f *fakeClient) killedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.killed...)
}

func (f *fakeClient) removedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

func (f *fakeClient) createdSpecs() []container.CreateSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]container.CreateSpec(nil), f.created...)
}

func (f *fakeClient) eventLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

// muxFrame encodes one frame of the multiplexed attach stream.
func muxFrame(stream container.Stream, payload string) []byte {
	var buf bytes.Buffer
	w := stdcopy.NewStdWriter(&buf, stdcopy.StdType(stream))
	_, _ = w.Write([]byte(payload))
	return buf.Bytes()
}

// lineRecorder collects callback lines for assertions.
type lineRecorder struct {
	mu    sync.Mutex
	lines []recordedLine
}

type recordedLine struct {
	text    string
	channel Channel
}

func (l *lineRecorder) record(line string, channel Channel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, recordedLine{text: line, channel: channel})
}

func (l *lineRecorder) all() []recordedLine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]recordedLine(nil), l.lines...)
}

func (l *lineRecorder) byChannel(channel Channel) []string {
	var out []string
	for _, line := range l.all() {
		if line.channel == channel {
			out = append(out, line.text)
		}
	}
	return out
}

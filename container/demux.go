package container

import (
	"bytes"
	"io"

	"github.com/docker/docker/pkg/stdcopy"
)

// Stream identifies which output channel a demultiplexed line belongs to.
// The values are the engine's stdcopy stream ids.
type Stream byte

const (
	StreamStdout = Stream(stdcopy.Stdout)
	StreamStderr = Stream(stdcopy.Stderr)
)

// Demuxer decodes the multiplexed attach stream and emits complete output
// lines. Frame reassembly is stdcopy's job; the per-stream buffers reassemble
// lines across frame and chunk boundaries. Lines are emitted without their
// trailing newline (and carriage return, if any), empty lines are dropped.
type Demuxer struct {
	stdout lineBuffer
	stderr lineBuffer
}

// NewDemuxer returns a demuxer forwarding every complete line to emit.
func NewDemuxer(emit func(stream Stream, line string)) *Demuxer {
	return &Demuxer{
		stdout: lineBuffer{stream: StreamStdout, emit: emit},
		stderr: lineBuffer{stream: StreamStderr, emit: emit},
	}
}

// Demux copies the multiplexed stream until EOF, emitting lines as they
// complete. Chunk boundaries carry no meaning: partial frames and partial
// lines are buffered until the rest arrives.
func (d *Demuxer) Demux(r io.Reader) error {
	_, err := stdcopy.StdCopy(&d.stdout, &d.stderr, r)
	return err
}

// Flush emits buffered trailing output that never received a newline. Call it
// once the stream has ended.
func (d *Demuxer) Flush() {
	d.stdout.flush()
	d.stderr.flush()
}

// lineBuffer accumulates one stream's payload bytes and emits a line per
// newline.
type lineBuffer struct {
	stream  Stream
	emit    func(stream Stream, line string)
	partial []byte
}

func (b *lineBuffer) Write(p []byte) (int, error) {
	b.partial = append(b.partial, p...)
	for {
		idx := bytes.IndexByte(b.partial, '\n')
		if idx < 0 {
			break
		}
		b.emitLine(b.partial[:idx])
		b.partial = b.partial[idx+1:]
	}
	return len(p), nil
}

func (b *lineBuffer) flush() {
	if len(b.partial) > 0 {
		b.emitLine(b.partial)
		b.partial = nil
	}
}

func (b *lineBuffer) emitLine(raw []byte) {
	line := bytes.TrimSuffix(raw, []byte{'\r'})
	if len(line) > 0 {
		b.emit(b.stream, string(line))
	}
}

package render

import (
	"sync/atomic"

	"git.unix.lgbt/diamondburned/castmon/castmon"
	"git.unix.lgbt/diamondburned/castmon/castmon/internal/exec"
	"git.unix.lgbt/diamondburned/castmon/castmon/logging"
	"github.com/pkg/errors"
)

// Video renders H.264 frames into a video sink.
type Video struct {
	*sink
	opts castmon.VideoOptions
	argv []string

	needKey    uint32
	foreground uint32
}

var _ castmon.VideoRenderer = (*Video)(nil)

// NewVideo creates a video renderer. It fails if the launcher cannot be
// found. The pipeline is not started until Start is called.
func NewVideo(log castmon.Logger, opts castmon.VideoOptions) (*Video, error) {
	start, err := lookupStarter()
	if err != nil {
		return nil, err
	}
	return newVideo(log, opts, start), nil
}

func newVideo(log castmon.Logger, opts castmon.VideoOptions, start exec.Starter) *Video {
	return &Video{
		sink:    newSink("video", log, start),
		opts:    opts,
		argv:    videoPipeline(opts),
		needKey: 1,
	}
}

// lookupStarter returns a Starter running the launcher found in $PATH.
func lookupStarter() (exec.Starter, error) {
	path, err := exec.LookPath(Launcher)
	if err != nil {
		return nil, errors.Wrap(err, "gstreamer not found")
	}

	return func(args []string) (exec.Process, error) {
		return exec.StartProcess(append([]string{path}, args...), nil)
	}, nil
}

// Start starts the pipeline.
func (v *Video) Start() error {
	if err := v.run(v.argv); err != nil {
		return err
	}

	v.logf(logging.LevelInfo, "started for %q: flip %v, rotate %v",
		v.opts.Name, v.opts.Flip, v.opts.Rotate)
	return nil
}

// Render queues a frame. Delta frames are dropped until the first key frame
// after a flush, since the decoder cannot use them.
func (v *Video) Render(ts uint64, payload []byte, kind castmon.FrameKind) {
	switch kind {
	case castmon.FrameKey:
		atomic.StoreUint32(&v.needKey, 0)
	case castmon.FrameDelta:
		if atomic.LoadUint32(&v.needKey) == 1 {
			return
		}
	}

	v.push(payload)
}

// Flush drops the queued frames.
func (v *Video) Flush() {
	atomic.StoreUint32(&v.needKey, 1)
	v.flush()
}

// SetForeground records whether a client is being mirrored.
func (v *Video) SetForeground(fg bool) {
	var n uint32
	if fg {
		n = 1
	}

	if atomic.SwapUint32(&v.foreground, n) != n {
		v.logf(logging.LevelDebug, "foreground: %v", fg)
	}
}

// Foreground returns the last value given to SetForeground.
func (v *Video) Foreground() bool {
	return atomic.LoadUint32(&v.foreground) == 1
}

// Events returns the channel that receives an event when the pipeline exits
// without Destroy being called.
func (v *Video) Events() <-chan castmon.RenderEvent {
	return v.events
}

// Destroy stops the pipeline.
func (v *Video) Destroy() {
	v.destroy()
}

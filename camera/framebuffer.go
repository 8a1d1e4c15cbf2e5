package camera

import "time"

// FrameBuffer borrows one captured frame from the driver.
// Release returns it; reading a released guard panics.
type FrameBuffer struct {
	cam      *Camera
	fb       *Frame
	released bool
}

func (f *FrameBuffer) frame() *Frame {
	if f.released {
		panic("camera: frame buffer read after release")
	}
	return f.fb
}

// Data is the driver-owned frame memory. It is only valid until Release.
func (f *FrameBuffer) Data() []byte { return f.frame().Buf }

// Bytes copies the frame out so it survives Release.
func (f *FrameBuffer) Bytes() []byte {
	buf := f.frame().Buf
	out := make([]byte, len(buf))
	copy(out, buf)
	return out
}

func (f *FrameBuffer) Len() int { return len(f.frame().Buf) }
func (f *FrameBuffer) Width() int { return f.frame().Width }
func (f *FrameBuffer) Height() int { return f.frame().Height }
func (f *FrameBuffer) Format() PixelFormat { return f.frame().Format }
func (f *FrameBuffer) Timestamp() time.Time { return f.frame().Timestamp }
func (f *FrameBuffer) Released() bool { return f.released }

// Release hands the buffer back to the driver. Later calls are no-ops.
func (f *FrameBuffer) Release() {
	if f.released {
		return
	}
	f.released = true
	f.cam.release(f)
}

package core

import "time"

const AVG_COUNT uint8 = 30

// FrameStats keeps a rolling frame-time average and a frames-per-second
// counter refreshed every second.
type FrameStats struct {
	frameAVGCounter    uint8
	msTimes            [AVG_COUNT]float64
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
	total              uint64
}

func NewFrameStats() *FrameStats {
	return &FrameStats{}
}

// Update records one frame. It reports true when a new FPS value was computed.
func (fs *FrameStats) Update(frameElapsed time.Duration) bool {
	frameMS := float64(frameElapsed) / float64(time.Millisecond)
	fs.msTimes[fs.frameAVGCounter] = frameMS
	if fs.frameAVGCounter == AVG_COUNT-1 {
		sum := 0.0
		for i := uint8(0); i < AVG_COUNT; i++ {
			sum += fs.msTimes[i]
		}
		fs.msAvg = sum / float64(AVG_COUNT)
	}
	fs.frameAVGCounter++
	fs.frameAVGCounter %= AVG_COUNT

	fs.total++
	fs.frames++

	fs.accumulatedFrameMS += frameMS
	if fs.accumulatedFrameMS > 1000 {
		fs.fps = float64(fs.frames)
		fs.accumulatedFrameMS -= 1000
		fs.frames = 0
		return true
	}
	return false
}

func (fs *FrameStats) FPS() float64 {
	return fs.fps
}

// FrameTime is the average frame time in milliseconds over the last AVG_COUNT frames.
func (fs *FrameStats) FrameTime() float64 {
	return fs.msAvg
}

func (fs *FrameStats) Total() uint64 {
	return fs.total
}

package camera

import (
	"image"
	"sync"
)

// LastFrameSink keeps the most recent preview frame.
type LastFrameSink struct {
	mu     sync.Mutex
	frame  image.Image
	frames int
}

func (s *LastFrameSink) Show(frame image.Image) {
	s.mu.Lock()
	s.frame = frame
	s.frames++
	s.mu.Unlock()
}

func (s *LastFrameSink) Last() (image.Image, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.frames
}

package parser

import "github.com/ava12/packrat/tree"

type frame struct {
	proc   *procRec
	slots  []slot
	result tree.Node
}

type frameStack struct {
	frames []*frame
}

func newFrameStack() *frameStack {
	return &frameStack{}
}

func (s *frameStack) Len() int {
	return len(s.frames)
}

func (s *frameStack) Push(f *frame) {
	s.frames = append(s.frames, f)
}

func (s *frameStack) Drop() {
	if len(s.frames) != 0 {
		s.frames[len(s.frames)-1] = nil
		s.frames = s.frames[:len(s.frames)-1]
	}
}

func (s *frameStack) Top() *frame {
	if len(s.frames) == 0 {
		return nil
	}

	return s.frames[len(s.frames)-1]
}

package bridge

import "sync"

// tail keeps the last size lines written to it.
type tail struct {
	size  int
	lines []string
	mux   sync.Mutex
}

func (t *tail) add(line string) {
	t.mux.Lock()
	defer t.mux.Unlock()
	if len(t.lines) == t.size {
		copy(t.lines, t.lines[1:])
		t.lines = t.lines[:t.size-1]
	}
	t.lines = append(t.lines, line)
}

func (t *tail) snapshot() []string {
	t.mux.Lock()
	defer t.mux.Unlock()
	return append([]string{}, t.lines...)
}

func newTail(size int) *tail {
	return &tail{size: size, lines: make([]string, 0, size)}
}

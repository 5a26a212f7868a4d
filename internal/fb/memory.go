package fb

import "sync"

var _ Device = (*Memory)(nil)

// Memory is a Device backed by a byte slice. It stands in for /dev/fb0 on
// machines without one. The mutex only keeps the Go race detector quiet;
// callers get no more ordering than from a real device.
type Memory struct {
	mu     sync.Mutex
	g      Geometry
	pix    []byte
	writes int
}

func NewMemory(g Geometry) *Memory {
	return &Memory{g: g, pix: make([]byte, g.Size())}
}

func (m *Memory) Geometry() Geometry { return m.g }

func (m *Memory) Write(b []byte) error {
	if err := m.g.Check(len(b)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.pix, b)
	m.writes++
	return nil
}

func (m *Memory) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.pix))
	copy(out, m.pix)
	return out, nil
}

// Writes counts successful full-frame writes.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Describe() string { return `memory ` + m.g.String() }

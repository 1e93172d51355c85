package service

import "sync"

// BatchStatus is a point-in-time view of the running batch.
type BatchStatus struct {
	Running   bool   `json:"running"`
	Label     string `json:"label,omitempty"`
	Total     int    `json:"total"`
	Done      int    `json:"done"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// Tracker is the single writer of batch progress state; readers get
// copies. The executor's aggregation goroutine drives it through the
// OnResult observer.
type Tracker struct {
	mu     sync.Mutex
	status BatchStatus
}

func (t *Tracker) Begin(label string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = BatchStatus{Running: true, Label: label, Total: total}
}

func (t *Tracker) Observe(succeeded bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Done++
	if succeeded {
		t.status.Succeeded++
	} else {
		t.status.Failed++
	}
}

func (t *Tracker) End() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Running = false
}

func (t *Tracker) Snapshot() BatchStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

package texcache

import (
	"sync"

	"github.com/gogpu/layercomp/device"
)

// Pending is the result of a Load. It resolves exactly once, on the frame
// thread, with an image or an error.
type Pending struct {
	id   string
	done chan struct{}

	mu        sync.Mutex
	img       device.Image
	err       error
	resolved  bool
	callbacks []func(device.Image, error)
}

func newPending(id string) *Pending {
	return &Pending{id: id, done: make(chan struct{})}
}

// ID returns the identifier being loaded.
func (p *Pending) ID() string { return p.id }

// Done is closed when the load resolves.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Resolved reports whether the load has resolved.
func (p *Pending) Resolved() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolved
}

// Result returns the image or error. Before resolution it returns
// (nil, nil).
func (p *Pending) Result() (device.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.img, p.err
}

// Then registers fn to run on resolution. If p already resolved, fn runs
// immediately on the calling goroutine.
func (p *Pending) Then(fn func(device.Image, error)) {
	p.mu.Lock()
	if !p.resolved {
		p.callbacks = append(p.callbacks, fn)
		p.mu.Unlock()
		return
	}
	img, err := p.img, p.err
	p.mu.Unlock()
	fn(img, err)
}

func (p *Pending) resolve(img device.Image, err error) {
	p.mu.Lock()
	if p.resolved {
		p.mu.Unlock()
		return
	}
	p.img, p.err, p.resolved = img, err, true
	callbacks := p.callbacks
	p.callbacks = nil
	p.mu.Unlock()

	close(p.done)
	for _, fn := range callbacks {
		fn(img, err)
	}
}

package pollard

import (
	"fmt"
	"sort"
	"sync"

	"github.com/agbru/pm1factor/internal/logging"
)

// Options configures backend construction.
type Options struct {
	// Lanes is the accelerator lane count; 0 selects runtime.NumCPU().
	Lanes int
	// Logger receives per-attempt debug lines; nil discards them.
	Logger logging.Logger
}

// Creator builds an uninitialized backend.
type Creator func(opts Options) Backend

// BackendFactory creates backends by registry name.
type BackendFactory interface {
	// Create returns a fresh, uninitialized backend wrapped with metrics,
	// tracing and logging. It fails for unregistered names.
	Create(name string, opts Options) (Backend, error)

	// List returns the sorted registered names.
	List() []string

	// Has reports whether name is registered.
	Has(name string) bool
}

// DefaultFactory is a thread-safe registry of backend creators. Backends
// hold device state, so every Create returns a new instance.
type DefaultFactory struct {
	mu       sync.RWMutex
	creators map[string]Creator
}

// NewDefaultFactory returns a factory with the portable backends registered
// plus any registered globally by build-tagged files.
//
// Pre-registered backends:
//   - "sequential": single-threaded math/big
//   - "accelerator": concurrent goroutine lanes with math/big
func NewDefaultFactory() *DefaultFactory {
	f := &DefaultFactory{creators: make(map[string]Creator)}
	f.Register(SequentialName, func(Options) Backend { return NewSequentialBackend() })
	f.Register(AcceleratorName, func(o Options) Backend { return NewLaneBackend(o.Lanes) })

	extraMu.RLock()
	defer extraMu.RUnlock()
	for name, creator := range extraCreators {
		f.creators[name] = creator
	}
	return f
}

// Register adds or replaces a backend creator.
func (f *DefaultFactory) Register(name string, creator Creator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creators[name] = creator
}

func (f *DefaultFactory) Create(name string, opts Options) (Backend, error) {
	f.mu.RLock()
	creator, ok := f.creators[name]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown backend: %s (available: %v)", name, f.List())
	}
	return NewInstrumented(creator(opts), opts.Logger), nil
}

func (f *DefaultFactory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.creators))
	for name := range f.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *DefaultFactory) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.creators[name]
	return ok
}

var (
	extraMu       sync.RWMutex
	extraCreators = map[string]Creator{}
)

// RegisterBackend makes a backend available to every factory created
// afterwards. Build-tagged backends call it from init.
func RegisterBackend(name string, creator Creator) {
	extraMu.Lock()
	defer extraMu.Unlock()
	extraCreators[name] = creator
}

package analysis

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Pool manages a fixed set of engine subprocesses so concurrent sessions
// never share a search pipe.
type Pool struct {
	engines    map[string]*UCIEngine
	available  chan string // IDs of available engines
	maxEngines int
	enginePath string
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewPool creates a new engine pool.
func NewPool(enginePath string, maxEngines int, logger *zap.Logger) *Pool {
	return &Pool{
		engines:    make(map[string]*UCIEngine),
		available:  make(chan string, maxEngines),
		maxEngines: maxEngines,
		enginePath: enginePath,
		logger:     logger,
	}
}

// Initialize spawns the initial set of engines.
func (p *Pool) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < p.maxEngines; i++ {
		engine, err := NewUCIEngine(p.enginePath, p.logger)
		if err != nil {
			return err
		}

		p.engines[engine.ID.String()] = engine
		p.available <- engine.ID.String()
	}

	p.logger.Info("engine pool initialized", zap.Int("count", len(p.engines)))
	return nil
}

// Get retrieves an available engine, waiting at most as long as ctx allows.
func (p *Pool) Get(ctx context.Context) (*UCIEngine, error) {
	select {
	case engineID := <-p.available:
		p.mu.RLock()
		engine, exists := p.engines[engineID]
		p.mu.RUnlock()

		if !exists {
			return nil, ErrEngineUnavailable
		}
		return engine, nil

	case <-ctx.Done():
		return nil, ErrEngineUnavailable
	}
}

// Return gives an engine back to the pool.
func (p *Pool) Return(engineID string) {
	p.mu.RLock()
	_, exists := p.engines[engineID]
	p.mu.RUnlock()

	if exists {
		select {
		case p.available <- engineID:
		default:
			p.logger.Warn("failed to return engine to pool, channel full",
				zap.String("engine_id", engineID))
		}
	}
}

// Shutdown closes all engines in the pool.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, engine := range p.engines {
		if err := engine.Close(); err != nil {
			p.logger.Error("error closing engine",
				zap.String("engine_id", id),
				zap.Error(err))
		}
	}

	close(p.available)
	p.engines = make(map[string]*UCIEngine)

	p.logger.Info("engine pool shut down")
}

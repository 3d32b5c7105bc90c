// Package mining implements BTPC's CPU/GPU mining loop: block-template
// assembly and refresh, nonce-range search dispatch across a worker
// pool, hashrate aggregation, and on-hit submission back through the
// chain manager's normal validation/apply path, per spec.md §4.9.
// Grounded on mining/mining.go's template-assembly pattern and
// cmd/kaspaminer's controller/worker split, generalized from kaspad's
// gRPC-template-pull miner to an in-process controller driving local
// CPU (and optionally GPU) solvers directly.
package mining

import (
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/eventbus"
	"github.com/Shion-Kamoto/BTPC-sub008/logger"
	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
)

// TemplateRefreshInterval is the maximum time a template is reused
// before being rebuilt even without a new tip, per spec.md §4.9.
const TemplateRefreshInterval = 30 * time.Second

// ChainSubmitter is the subset of chain.Manager a found block is
// submitted through: the same validation/apply path any received
// network block goes through, so a locally mined block can't bypass
// consensus checks.
type ChainSubmitter interface {
	ProcessBlock(block *domain.Block, networkAdjustedTime uint64) error
}

// Broadcaster announces a newly accepted locally-mined block to
// connected peers. Kept as a one-method interface over domain.Block
// rather than importing p2p/wire directly, so mining stays decoupled
// from wire framing specifics.
type Broadcaster interface {
	AnnounceBlock(block *domain.Block)
}

// Controller owns the template cache, the CPU worker pool, and the
// hashrate/found-block reporting for one mining session.
type Controller struct {
	chain   BlockAssembler
	pool    TxPool
	submit  ChainSubmitter
	bcast   Broadcaster
	params  *netparams.Params
	bus     *eventbus.Bus

	minerPublicKey []byte
	coinbaseData   []byte

	workers int
	solver  Solver

	templates *templateBox
	found     chan foundBlock

	running      int32
	lastHashrate uint64 // math.Float64bits, read/written atomically
	stop         chan struct{}
	wg           sync.WaitGroup
}

// Config bundles Controller construction parameters.
type Config struct {
	Chain          BlockAssembler
	Pool           TxPool
	Submitter      ChainSubmitter
	Broadcaster    Broadcaster
	Params         *netparams.Params
	Bus            *eventbus.Bus
	MinerPublicKey []byte
	CoinbaseData   []byte
	// Workers is the CPU worker count. Zero selects runtime.NumCPU().
	Workers int
	// Solver overrides the default CPUSolver, letting a GPU-backed
	// implementation plug into the same dispatch loop.
	Solver Solver
}

// New creates a stopped Controller from cfg.
func New(cfg Config) *Controller {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	solver := cfg.Solver
	if solver == nil {
		solver = &CPUSolver{}
	}
	return &Controller{
		chain:          cfg.Chain,
		pool:           cfg.Pool,
		submit:         cfg.Submitter,
		bcast:          cfg.Broadcaster,
		params:         cfg.Params,
		bus:            cfg.Bus,
		minerPublicKey: cfg.MinerPublicKey,
		coinbaseData:   cfg.CoinbaseData,
		workers:        workers,
		solver:         solver,
		templates:      &templateBox{},
		found:          make(chan foundBlock, 4),
	}
}

// Start launches the worker pool and the template-refresh/found-block
// dispatch loop. It is a no-op if already running.
func (c *Controller) Start() {
	if c.stop != nil {
		return
	}
	c.stop = make(chan struct{})

	c.rebuildTemplate()

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		idx := i
		go func() {
			defer c.wg.Done()
			workerLoop(c.solver, idx, c.workers, c.templates, c.found, c.stop)
		}()
	}

	c.wg.Add(1)
	go c.dispatchLoop()

	atomic.StoreInt32(&c.running, 1)
	c.bus.Publish(eventbus.EventMiningStarted, &eventbus.MiningEvent{})
	logger.MiningLog.Infof("mining started with %d workers", c.workers)
}

// Stop halts the worker pool and refresh loop, blocking until every
// worker has observed the stop signal -- spec.md §4.9's 5-second
// cooperative-cancellation bound is enforced by CPUSolver's internal
// cancellation check interval, not by a timeout here.
func (c *Controller) Stop() {
	if c.stop == nil {
		return
	}
	close(c.stop)
	c.wg.Wait()
	c.stop = nil
	atomic.StoreInt32(&c.running, 0)
	c.bus.Publish(eventbus.EventMiningStopped, &eventbus.MiningEvent{})
	logger.MiningLog.Infof("mining stopped")
}

// Running reports whether the controller currently has worker
// goroutines dispatched.
func (c *Controller) Running() bool { return atomic.LoadInt32(&c.running) != 0 }

// Workers returns the configured CPU worker count.
func (c *Controller) Workers() int { return c.workers }

// Hashrate returns the most recently measured local hash rate, in
// hashes per second.
func (c *Controller) Hashrate() float64 {
	return math.Float64frombits(atomic.LoadUint64(&c.lastHashrate))
}

// CurrentTemplate returns the controller's presently cached template,
// or nil before the first build. Used by getblocktemplate to hand an
// external miner the same candidate the internal workers are
// searching.
func (c *Controller) CurrentTemplate() *Template { return c.templates.get() }

func (c *Controller) rebuildTemplate() {
	tpl := BuildTemplate(c.chain, c.pool, c.params, c.minerPublicKey, c.coinbaseData)
	c.templates.set(tpl)
}

// dispatchLoop refreshes the template on a timer and submits any
// worker-found block, then rebuilds immediately so mining continues
// on top of the new tip.
func (c *Controller) dispatchLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(TemplateRefreshInterval)
	defer ticker.Stop()

	hashrateTicker := time.NewTicker(hashrateWindow)
	defer hashrateTicker.Stop()

	var solver *CPUSolver
	if s, ok := c.solver.(*CPUSolver); ok {
		solver = s
	}
	var lastHashes uint64

	for {
		select {
		case fb := <-c.found:
			c.submitFound(fb)
			c.rebuildTemplate()
		case <-ticker.C:
			if tpl := c.templates.get(); tpl == nil || tpl.Stale(c.chain) || time.Since(tpl.CreatedAt) >= TemplateRefreshInterval {
				c.rebuildTemplate()
			}
		case <-hashrateTicker.C:
			if solver == nil {
				continue
			}
			done := atomic.LoadUint64(&solver.HashesDone)
			rate := float64(done-lastHashes) / hashrateWindow.Seconds()
			lastHashes = done
			atomic.StoreUint64(&c.lastHashrate, math.Float64bits(rate))
			c.bus.Publish(eventbus.EventMiningHashrateUpdated, &eventbus.MiningEvent{HashesPerSecond: rate})
		case <-c.stop:
			return
		}
	}
}

func (c *Controller) submitFound(fb foundBlock) {
	block := fb.template.Block
	block.Header.Nonce = fb.nonce

	if err := c.submit.ProcessBlock(block, uint64(time.Now().Unix())); err != nil {
		logger.MiningLog.Warnf("found block rejected by chain manager: %v", err)
		return
	}
	hash := block.BlockHash()
	logger.MiningLog.Infof("mined block %s at height %d", hash, fb.template.Height)
	c.bus.Publish(eventbus.EventMiningBlockFound, &eventbus.MiningEvent{
		BlockHash: hash.String(),
		Height:    uint32(fb.template.Height),
	})
	if c.bcast != nil {
		c.bcast.AnnounceBlock(block)
	}
}

// Package worker implements mining for the blockchain.
package worker

import (
	"sync"
	"time"

	"github.com/ardanlabs/blockforge/foundation/blockchain/state"
)

// DefaultMiningTimeout bounds a single mining operation when no timeout is
// configured.
const DefaultMiningTimeout = 5 * time.Minute

// =============================================================================

// Worker manages the POW workflows for the blockchain.
type Worker struct {
	state         *state.State
	wg            sync.WaitGroup
	shut          chan struct{}
	startMining   chan bool
	cancelMining  chan chan struct{}
	miningTimeout time.Duration
	evHandler     state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, miningTimeout time.Duration, evHandler state.EventHandler) *Worker {
	if miningTimeout <= 0 {
		miningTimeout = DefaultMiningTimeout
	}

	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	w := Worker{
		state:         st,
		shut:          make(chan struct{}),
		startMining:   make(chan bool, 1),
		cancelMining:  make(chan chan struct{}, 1),
		miningTimeout: miningTimeout,
		evHandler:     evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.miningOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	// Mine whatever the node started with.
	if st.QueryMempoolLength() > 0 {
		w.SignalStartMining()
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: signal cancel mining")
	done := w.SignalCancelMining()
	done()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since a mining operation will start.
func (w *Worker) SignalStartMining() {
	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately. That G will not return until the done function is
// called, so the caller can finish its own state changes first.
func (w *Worker) SignalCancelMining() (done func()) {
	wait := make(chan struct{})

	select {
	case w.cancelMining <- wait:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")

	var once sync.Once
	return func() { once.Do(func() { close(wait) }) }
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}

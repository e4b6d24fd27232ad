// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	v1 "github.com/ardanlabs/blockforge/business/web/v1"
	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
	"github.com/ardanlabs/blockforge/foundation/blockchain/merkle"
	"github.com/ardanlabs/blockforge/foundation/blockchain/state"
	"github.com/ardanlabs/blockforge/foundation/events"
	"github.com/ardanlabs/blockforge/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the blockchain.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// Starting a ticker to send a ping message over the websocket.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Block waiting for events from the blockchain or ticker.
	for {
		select {
		case e, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteJSON(e); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Blocks returns the full chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toBlockData(h.State.RetrieveChain()), http.StatusOK)
}

// LatestBlock returns the tip of the chain.
func (h Handlers) LatestBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.State.RetrieveLatestBlock()
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, database.NewBlockData(block), http.StatusOK)
}

// BlocksByHeight returns the blocks at the specified height.
func (h Handlers) BlocksByHeight(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	height, err := strconv.ParseUint(web.Param(r, "height"), 10, 16)
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("invalid height: %w", err), http.StatusBadRequest)
	}

	blocks := h.State.QueryBlocksByHeight(uint16(height))
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, toBlockData(blocks), http.StatusOK)
}

// Mempool returns the set of uncommitted transactions in selection order.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempool(), http.StatusOK)
}

// SubmitTransaction adds a new transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var t tx
	if err := web.Decode(r, &t); err != nil {
		return err
	}

	dbTx := t.toDB()

	h.Log.Infow("add tran", "traceid", v.TraceID, "tx", dbTx, "hash", dbTx.Hash())
	n := h.State.UpsertMempool(dbTx)

	resp := struct {
		Status  string `json:"status"`
		Hash    string `json:"hash"`
		Mempool int    `json:"mempool"`
	}{
		Status:  "transaction added to mempool",
		Hash:    dbTx.Hash(),
		Mempool: n,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// HashTransaction returns the hash of the transaction in the body.
func (h Handlers) HashTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var t tx
	if err := web.Decode(r, &t); err != nil {
		return err
	}

	return web.Respond(ctx, w, txHash{Hash: t.toDB().Hash()}, http.StatusOK)
}

// SignalMining asks the node to mine a block from its mempool.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if !h.State.SignalMining() {
		return v1.NewRequestError(errors.New("mining is not running on this node"), http.StatusServiceUnavailable)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Proof returns the inclusion proof for a transaction in a block.
func (h Handlers) Proof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.Atoi(web.Param(r, "index"))
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("invalid index: %w", err), http.StatusBadRequest)
	}

	ip, err := h.State.GenerateInclusionProof(web.Param(r, "hash"), index)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrBlockNotFound):
			return v1.NewRequestError(err, http.StatusNotFound)
		case errors.Is(err, merkle.ErrProofIndexOutOfRange), errors.Is(err, merkle.ErrNoValues):
			return v1.NewRequestError(err, http.StatusBadRequest)
		}
		return err
	}

	return web.Respond(ctx, w, ip, http.StatusOK)
}

// VerifyProof checks a leaf and proof against a merkle root.
func (h Handlers) VerifyProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var pc proofCheck
	if err := web.Decode(r, &pc); err != nil {
		return err
	}

	valid := state.VerifyInclusionProof(pc.Root, pc.Leaf, pc.Proof)

	return web.Respond(ctx, w, proofResult{Valid: valid}, http.StatusOK)
}

// =============================================================================

func toBlockData(blocks []database.Block) []database.BlockData {
	blockData := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		blockData[i] = database.NewBlockData(block)
	}
	return blockData
}

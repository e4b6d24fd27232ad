// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	v1 "github.com/ardanlabs/blockforge/business/web/v1"
	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
	"github.com/ardanlabs/blockforge/foundation/blockchain/state"
	"github.com/ardanlabs/blockforge/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// ProposeBlock takes a block mined elsewhere, validates it and if that
// passes, adds the block to the local blockchain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Decode the JSON in the post call into a file system block.
	var blockData database.BlockData
	if err := web.Decode(r, &blockData); err != nil {
		return err
	}

	// Convert the block data into a block. The merkle tree is built on
	// first use during validation.
	block := database.ToBlock(blockData)

	// Ask the state package to validate the proposed block. If the block
	// passes validation, it will be added to the blockchain database.
	if err := h.State.ProcessProposedBlock(block); err != nil {
		h.Log.Infow("propose block", "traceid", v.TraceID, "hash", block.Hash(), "ERROR", err)

		if errors.Is(err, database.ErrBlockInvalid) {
			return v1.NewRequestError(err, http.StatusNotAcceptable)
		}
		return err
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latestBlock, err := h.State.RetrieveLatestBlock()
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	status := struct {
		LatestBlockHash   string `json:"latest_block_hash"`
		LatestBlockHeight uint16 `json:"latest_block_height"`
		ChainLength       int    `json:"chain_length"`
		MempoolLength     int    `json:"mempool_length"`
	}{
		LatestBlockHash:   latestBlock.Hash(),
		LatestBlockHeight: latestBlock.Header.Height,
		ChainLength:       h.State.QueryChainLength(),
		MempoolLength:     h.State.QueryMempoolLength(),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// BlocksByNumber returns all the blocks based on the specified to/from
// positions in the chain.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	fromStr := web.Param(r, "from")
	if fromStr == "latest" || fromStr == "" {
		fromStr = fmt.Sprintf("%d", state.QueryLatest)
	}

	toStr := web.Param(r, "to")
	if toStr == "latest" || toStr == "" {
		toStr = fmt.Sprintf("%d", state.QueryLatest)
	}

	from, err := strconv.ParseUint(fromStr, 10, 64)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}
	to, err := strconv.ParseUint(toStr, 10, 64)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	if from > to {
		return v1.NewRequestError(errors.New("from greater than to"), http.StatusBadRequest)
	}

	blocks := h.State.QueryBlocksByPosition(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blockData := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		blockData[i] = database.NewBlockData(block)
	}

	return web.Respond(ctx, w, blockData, http.StatusOK)
}

// Package genesis maintains access to the data files a node starts from: the
// pending transactions, the existing chain and the pool of miner addresses.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
	"github.com/ardanlabs/blockforge/foundation/validate"
)

// Names of the data files inside the data folder.
const (
	MempoolFile   = "mempool.json"
	ChainFile     = "blockchain.json"
	AddressesFile = "miner_addresses.json"
)

// ErrMalformedRecord is returned when a record in a data file can't be
// decoded or is missing a field.
var ErrMalformedRecord = errors.New("malformed record")

// Genesis represents the starting data for a node.
type Genesis struct {
	Mempool   []database.Tx
	Chain     []database.Block
	Addresses []string
}

// =============================================================================

// Load opens and consumes the three data files in the specified folder.
func Load(dataPath string) (Genesis, error) {
	mempool, err := LoadMempool(filepath.Join(dataPath, MempoolFile))
	if err != nil {
		return Genesis{}, err
	}

	chain, err := LoadChain(filepath.Join(dataPath, ChainFile))
	if err != nil {
		return Genesis{}, err
	}

	addresses, err := LoadAddresses(filepath.Join(dataPath, AddressesFile))
	if err != nil {
		return Genesis{}, err
	}

	g := Genesis{
		Mempool:   mempool,
		Chain:     chain,
		Addresses: addresses,
	}

	return g, nil
}

// LoadMempool reads the pending transactions from the specified file.
func LoadMempool(path string) ([]database.Tx, error) {
	var records []txRecord
	if err := decode(path, &records); err != nil {
		return nil, err
	}

	trans := make([]database.Tx, len(records))
	for i, record := range records {
		if err := validate.Check(record); err != nil {
			return nil, fmt.Errorf("%s: tx %d: %w: %w", path, i, ErrMalformedRecord, err)
		}
		trans[i] = record.toTx()
	}

	return trans, nil
}

// LoadChain reads the chain of blocks from the specified file.
func LoadChain(path string) ([]database.Block, error) {
	var records []blockRecord
	if err := decode(path, &records); err != nil {
		return nil, err
	}

	blocks := make([]database.Block, len(records))
	for i, record := range records {
		if err := validate.Check(record); err != nil {
			return nil, fmt.Errorf("%s: block %d: %w: %w", path, i, ErrMalformedRecord, err)
		}
		blocks[i] = record.toBlock()
	}

	return blocks, nil
}

// LoadAddresses reads the miner addresses from the specified file.
func LoadAddresses(path string) ([]string, error) {
	var addresses []string
	if err := decode(path, &addresses); err != nil {
		return nil, err
	}

	for i, address := range addresses {
		if strings.TrimSpace(address) == "" {
			return nil, fmt.Errorf("%s: address %d: %w: empty address", path, i, ErrMalformedRecord)
		}
	}

	return addresses, nil
}

// decode reads the JSON document in the specified file into v.
func decode(path string, v any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("%s: %w: %w", path, ErrMalformedRecord, err)
	}

	return nil
}

// =============================================================================

// The record types use pointer fields so a field missing from the document
// can be told apart from a field holding a zero value.

type txRecord struct {
	Receiver  *string `json:"receiver" validate:"required"`
	Sender    *string `json:"sender" validate:"required"`
	Signature *string `json:"signature" validate:"required"`
	Amount    *uint64 `json:"amount" validate:"required"`
	LockTime  *uint64 `json:"lock_time" validate:"required"`
	Fee       *uint64 `json:"transaction_fee" validate:"required"`
}

func (r txRecord) toTx() database.Tx {
	return database.Tx{
		Receiver:  *r.Receiver,
		Sender:    *r.Sender,
		Signature: *r.Signature,
		Amount:    *r.Amount,
		LockTime:  *r.LockTime,
		Fee:       *r.Fee,
	}
}

type headerRecord struct {
	Difficulty    *uint8  `json:"difficulty" validate:"required,lte=6"`
	Hash          *string `json:"hash" validate:"required,hash"`
	Height        *uint16 `json:"height" validate:"required"`
	Miner         *string `json:"miner" validate:"required"`
	Nonce         *uint64 `json:"nonce" validate:"required"`
	PrevBlockHash *string `json:"previous_block_header_hash" validate:"required,hash"`
	TimeStamp     *uint64 `json:"timestamp" validate:"required"`
	TransCount    *uint32 `json:"transactions_count" validate:"required"`
	TransRoot     *string `json:"transactions_merkle_root" validate:"required,hash"`
}

type blockRecord struct {
	Header *headerRecord `json:"header" validate:"required"`
	Trans  []txRecord    `json:"transactions" validate:"required,dive"`
}

func (r blockRecord) toBlock() database.Block {
	h := r.Header

	header := database.BlockHeader{
		Difficulty:    *h.Difficulty,
		Hash:          *h.Hash,
		Height:        *h.Height,
		Miner:         *h.Miner,
		Nonce:         *h.Nonce,
		PrevBlockHash: *h.PrevBlockHash,
		TimeStamp:     *h.TimeStamp,
		TransCount:    *h.TransCount,
		TransRoot:     *h.TransRoot,
	}

	trans := make([]database.Tx, len(r.Trans))
	for i, record := range r.Trans {
		trans[i] = record.toTx()
	}

	return database.NewBlock(header, trans)
}

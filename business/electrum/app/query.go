package app

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/electrum-core/business/electrum/domain"
	"github.com/fd1az/electrum-core/internal/apperror"
	"github.com/fd1az/electrum-core/internal/cache"
	"github.com/fd1az/electrum-core/internal/logger"
	"github.com/fd1az/electrum-core/internal/ratelimit"
)

const profileTimeout = 15 * time.Second

// QueryService answers wallet queries over the active connection. It batches
// requests when the server allows it and fans out single calls otherwise.
type QueryService struct {
	rpc     RPC
	txCache TxCache
	codec   AddressCodec
	limiter *ratelimit.Limiter
	log     logger.LoggerInterface

	// txid -> confirmation height, learned from history lookups
	heights *cache.Cache[string, int64]
	now     func() time.Time
}

// NewQueryService creates a new QueryService.
func NewQueryService(rpc RPC, txCache TxCache, codec AddressCodec, limiter *ratelimit.Limiter, log logger.LoggerInterface) *QueryService {
	return &QueryService{
		rpc:     rpc,
		txCache: txCache,
		codec:   codec,
		limiter: limiter,
		log:     log,
		heights: cache.New[string, int64](0),
		now:     time.Now,
	}
}

// Close releases the height cache.
func (s *QueryService) Close() {
	s.heights.Close()
}

// GetBalanceByAddress returns the balance of one address.
func (s *QueryService) GetBalanceByAddress(ctx context.Context, address string) (domain.Balance, error) {
	hash, err := s.scriptHash(address)
	if err != nil {
		return domain.Balance{}, err
	}

	var bal domain.Balance
	if err := s.rpc.Call(ctx, &bal, domain.MethodGetBalance, hash); err != nil {
		return domain.Balance{}, err
	}
	bal.Address = address
	return bal, nil
}

// MultiGetBalanceByAddress sums balances over many addresses.
func (s *QueryService) MultiGetBalanceByAddress(ctx context.Context, addresses []string) (domain.MultiBalance, error) {
	ret := domain.MultiBalance{Addresses: make(map[string]domain.Balance, len(addresses))}

	for _, chunk := range domain.Chunk(addresses, domain.ChunkBalance) {
		hashes, byHash, err := s.scriptHashes(chunk)
		if err != nil {
			return domain.MultiBalance{}, err
		}

		balances, err := fetchAll[domain.Balance](ctx, s, domain.MethodGetBalance, hashes)
		if err != nil {
			return domain.MultiBalance{}, err
		}

		for hash, bal := range balances {
			ret.Confirmed += bal.Confirmed
			ret.Unconfirmed += bal.Unconfirmed
			ret.Addresses[byHash[hash]] = domain.Balance{Confirmed: bal.Confirmed, Unconfirmed: bal.Unconfirmed}
		}
	}
	return ret, nil
}

type utxoWire struct {
	TxHash string `json:"tx_hash"`
	TxPos  uint32 `json:"tx_pos"`
	Height int64  `json:"height"`
	Value  int64  `json:"value"`
}

// MultiGetUtxoByAddress lists unspent outputs per address. Servers that
// cannot batch return nothing and callers derive UTXOs from transactions.
func (s *QueryService) MultiGetUtxoByAddress(ctx context.Context, addresses []string) (map[string][]domain.Utxo, error) {
	ret := make(map[string][]domain.Utxo)

	for _, chunk := range domain.Chunk(addresses, domain.ChunkUtxo) {
		hashes, byHash, err := s.scriptHashes(chunk)
		if err != nil {
			return nil, err
		}
		if s.rpc.BatchingDisabled() {
			continue
		}

		results, err := batchAll[[]utxoWire](ctx, s, domain.MethodListUnspent, hashes)
		if err != nil {
			return nil, err
		}

		for hash, list := range results {
			addr := byHash[hash]
			utxos := make([]domain.Utxo, 0, len(list))
			for _, u := range list {
				utxos = append(utxos, domain.Utxo{
					Address: addr,
					TxID:    u.TxHash,
					Vout:    u.TxPos,
					Value:   u.Value,
					Height:  u.Height,
				})
			}
			ret[addr] = utxos
		}
	}
	return ret, nil
}

// GetTransactionsByAddress returns the history of one address.
func (s *QueryService) GetTransactionsByAddress(ctx context.Context, address string) ([]domain.HistoryItem, error) {
	hash, err := s.scriptHash(address)
	if err != nil {
		return nil, err
	}

	var history []domain.HistoryItem
	if err := s.rpc.Call(ctx, &history, domain.MethodGetHistory, hash); err != nil {
		return nil, err
	}
	s.rememberHeights(ctx, history)
	return history, nil
}

// MultiGetHistoryByAddress returns histories per address and records the
// confirmation height of every transaction seen.
func (s *QueryService) MultiGetHistoryByAddress(ctx context.Context, addresses []string) (map[string][]domain.HistoryItem, error) {
	ret := make(map[string][]domain.HistoryItem, len(addresses))

	for _, chunk := range domain.Chunk(addresses, domain.ChunkHistory) {
		hashes, byHash, err := s.scriptHashes(chunk)
		if err != nil {
			return nil, err
		}

		results, err := fetchAll[[]domain.HistoryItem](ctx, s, domain.MethodGetHistory, hashes)
		if err != nil {
			return nil, err
		}

		for _, hash := range hashes {
			addr := byHash[hash]
			history := results[hash]
			if history == nil {
				history = []domain.HistoryItem{}
			}
			s.rememberHeights(ctx, history)
			for i := range history {
				history[i].Address = addr
			}
			ret[addr] = history
		}
	}
	return ret, nil
}

// GetMempoolTransactionsByAddress lists unconfirmed transactions of one address.
func (s *QueryService) GetMempoolTransactionsByAddress(ctx context.Context, address string) ([]domain.MempoolItem, error) {
	hash, err := s.scriptHash(address)
	if err != nil {
		return nil, err
	}

	var items []domain.MempoolItem
	if err := s.rpc.Call(ctx, &items, domain.MethodGetMempool, hash); err != nil {
		return nil, err
	}
	return items, nil
}

// MultiGetTransactions returns decoded transactions keyed by txid. Ids the
// server does not know are absent from the result.
func (s *QueryService) MultiGetTransactions(ctx context.Context, txids []string) (map[string]*domain.Transaction, error) {
	results, err := s.multiGetTransactions(ctx, txids, true)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*domain.Transaction, len(results))
	for id, r := range results {
		if r.Verbose != nil {
			out[id] = r.Verbose
		}
	}
	return out, nil
}

// MultiGetRawTransactions returns raw transaction hex keyed by txid.
func (s *QueryService) MultiGetRawTransactions(ctx context.Context, txids []string) (map[string]string, error) {
	results, err := s.multiGetTransactions(ctx, txids, false)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(results))
	for id, r := range results {
		if r.Raw != "" {
			out[id] = r.Raw
		}
	}
	return out, nil
}

func (s *QueryService) multiGetTransactions(ctx context.Context, txids []string, verbose bool) (map[string]domain.TxResult, error) {
	txids = domain.UniqueNonEmpty(txids)

	ret, misses := s.txCache.Lookup(ctx, txids, verbose)
	if len(misses) == 0 {
		return ret, nil
	}

	fetched := make(map[string]domain.TxResult, len(misses))
	for _, chunk := range domain.Chunk(misses, domain.ChunkTransactions) {
		var (
			results map[string]domain.TxResult
			err     error
		)
		if s.rpc.BatchingDisabled() {
			results, err = s.getTransactionsUnbatched(ctx, chunk, verbose)
		} else {
			results, err = s.getTransactionsBatched(ctx, chunk, verbose)
		}
		if err != nil {
			return nil, err
		}
		maps.Copy(fetched, results)
	}

	if verbose {
		txs := make(map[string]*domain.Transaction, len(fetched))
		for id, r := range fetched {
			if r.Verbose == nil {
				continue
			}
			r.Verbose.Hex = ""
			r.Verbose.MirrorAddresses()
			txs[id] = r.Verbose
		}
		if err := s.txCache.StoreVerbose(ctx, txs); err != nil {
			s.log.Warn(ctx, "failed to cache transactions", "error", err)
		}
	} else {
		raws := make(map[string]string, len(fetched))
		for id, r := range fetched {
			if r.Raw != "" {
				raws[id] = r.Raw
			}
		}
		if err := s.txCache.StoreRaw(ctx, raws); err != nil {
			s.log.Warn(ctx, "failed to cache raw transactions", "error", err)
		}
	}

	maps.Copy(ret, fetched)
	return ret, nil
}

func (s *QueryService) getTransactionsBatched(ctx context.Context, chunk []string, verbose bool) (map[string]domain.TxResult, error) {
	elems := make([]domain.BatchElem, len(chunk))
	for i, id := range chunk {
		elems[i] = domain.BatchElem{
			Method: domain.MethodTransactionGet,
			Args:   []any{id, verbose},
			Result: new(json.RawMessage),
		}
	}

	if err := s.rpc.BatchCall(ctx, elems); err != nil {
		return nil, err
	}

	out := make(map[string]domain.TxResult, len(chunk))
	for i, e := range elems {
		id := chunk[i]

		if e.Error != nil {
			var rpcErr *domain.RPCError
			if !errors.As(e.Error, &rpcErr) || !rpcErr.IsResponseTooLarge() {
				s.log.Warn(ctx, "transaction lookup failed", "txid", id, "error", e.Error)
				continue
			}

			// retry alone without verbosity, the raw form always fits
			r, err := s.getRawTransaction(ctx, id, verbose)
			if err != nil {
				s.log.Warn(ctx, "raw transaction fallback failed", "txid", id, "error", err)
				continue
			}
			out[id] = r
			continue
		}

		r, err := s.parseTxResult(*e.Result.(*json.RawMessage), verbose)
		if err != nil {
			s.log.Warn(ctx, "unexpected transaction result", "txid", id, "error", err)
			continue
		}
		out[id] = r
	}
	return out, nil
}

func (s *QueryService) getTransactionsUnbatched(ctx context.Context, chunk []string, verbose bool) (map[string]domain.TxResult, error) {
	out, err := fanOut(ctx, s.limiter, chunk, func(ctx context.Context, id string) (domain.TxResult, error) {
		return s.getTransaction(ctx, id, verbose)
	})
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Some servers do not track every transaction, so one unknown id fails
	// the whole chunk. Retry one at a time and drop the ones that fail.
	fetch := s.getTransaction
	if verbose && domain.IsVerboseUnsupported(err) {
		fetch = s.getRawTransaction
	}

	out = make(map[string]domain.TxResult, len(chunk))
	for _, id := range chunk {
		r, err := fetch(ctx, id, verbose)
		if err != nil {
			s.log.Debug(ctx, "transaction skipped", "txid", id, "error", err)
			continue
		}
		out[id] = r
	}
	return out, nil
}

// getTransaction fetches one transaction as requested.
func (s *QueryService) getTransaction(ctx context.Context, txid string, verbose bool) (domain.TxResult, error) {
	var raw json.RawMessage
	if err := s.rpc.Call(ctx, &raw, domain.MethodTransactionGet, txid, verbose); err != nil {
		return domain.TxResult{}, err
	}
	return s.parseTxResult(raw, verbose)
}

// getRawTransaction fetches raw hex and decodes it locally when verbose is set.
func (s *QueryService) getRawTransaction(ctx context.Context, txid string, verbose bool) (domain.TxResult, error) {
	var txhex string
	if err := s.rpc.Call(ctx, &txhex, domain.MethodTransactionGet, txid, false); err != nil {
		return domain.TxResult{}, err
	}
	if !verbose {
		return domain.TxResult{Raw: txhex}, nil
	}

	tx, err := s.DecodeRawTransaction(txhex)
	if err != nil {
		return domain.TxResult{}, err
	}
	return domain.TxResult{Verbose: tx}, nil
}

// parseTxResult accepts either a decoded object or a hex string. Some servers
// ignore the verbose flag and answer with hex, which is then decoded here.
func (s *QueryService) parseTxResult(raw json.RawMessage, verbose bool) (domain.TxResult, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return domain.TxResult{}, apperror.New(apperror.CodeElectrumBadResponse,
			apperror.WithContext("empty transaction result"))
	}

	if raw[0] == '"' {
		var txhex string
		if err := json.Unmarshal(raw, &txhex); err != nil {
			return domain.TxResult{}, apperror.New(apperror.CodeElectrumBadResponse, apperror.WithCause(err))
		}
		if !verbose {
			return domain.TxResult{Raw: txhex}, nil
		}
		tx, err := s.DecodeRawTransaction(txhex)
		if err != nil {
			return domain.TxResult{}, err
		}
		return domain.TxResult{Verbose: tx}, nil
	}

	if !verbose {
		return domain.TxResult{}, apperror.New(apperror.CodeElectrumBadResponse,
			apperror.WithContext("expected raw transaction hex"))
	}

	var tx domain.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return domain.TxResult{}, apperror.New(apperror.CodeElectrumBadResponse, apperror.WithCause(err))
	}
	return domain.TxResult{Verbose: &tx}, nil
}

// Broadcast submits a signed transaction and returns its txid.
func (s *QueryService) Broadcast(ctx context.Context, txhex string) (string, error) {
	if err := s.rpc.WaitUntilConnected(ctx); err != nil {
		return "", err
	}

	var txid string
	if err := s.rpc.Call(ctx, &txid, domain.MethodBroadcast, txhex); err != nil {
		return "", apperror.New(apperror.CodeBroadcastFailed, apperror.WithCause(err))
	}
	return txid, nil
}

// ServerFeatures returns the server's feature map.
func (s *QueryService) ServerFeatures(ctx context.Context) (map[string]any, error) {
	var features map[string]any
	if err := s.rpc.Call(ctx, &features, domain.MethodServerFeatures); err != nil {
		return nil, err
	}
	return features, nil
}

// FeeHistogram returns the mempool fee histogram as [feerate, vsize] pairs.
func (s *QueryService) FeeHistogram(ctx context.Context) ([][2]float64, error) {
	var histogram [][2]float64
	if err := s.rpc.Call(ctx, &histogram, domain.MethodMempoolFeeHistogram); err != nil {
		return nil, err
	}
	return histogram, nil
}

// EstimateFee returns the server's estimate in sat/vB for confirmation
// within blocks. A server without an estimate yields 1.
func (s *QueryService) EstimateFee(ctx context.Context, blocks int) (int64, error) {
	if blocks <= 0 {
		blocks = 1
	}

	var perKB decimal.Decimal
	if err := s.rpc.Call(ctx, &perKB, domain.MethodEstimateFee, blocks); err != nil {
		return 0, err
	}
	if perKB.Equal(decimal.NewFromInt(-1)) {
		return 1, nil
	}
	return perKB.Div(decimal.NewFromInt(1024)).Shift(8).Round(0).IntPart(), nil
}

// EstimateCurrentHeight extrapolates the chain height from the last tip.
func (s *QueryService) EstimateCurrentHeight() int64 {
	return domain.EstimateHeight(s.rpc.Tip(), s.now())
}

// CalculateBlockTime extrapolates the time a block at height was mined.
func (s *QueryService) CalculateBlockTime(height int64) int64 {
	return domain.BlockTime(s.rpc.Tip(), height)
}

func (s *QueryService) rememberHeights(ctx context.Context, history []domain.HistoryItem) {
	for _, h := range history {
		if h.TxHash != "" {
			s.heights.Set(ctx, h.TxHash, h.Height, 0)
		}
	}
}

func (s *QueryService) scriptHash(address string) (string, error) {
	script, err := s.codec.OutputScript(address)
	if err != nil {
		return "", err
	}
	return domain.ScriptHash(script), nil
}

func (s *QueryService) scriptHashes(addresses []string) ([]string, map[string]string, error) {
	hashes := make([]string, 0, len(addresses))
	byHash := make(map[string]string, len(addresses))
	for _, addr := range addresses {
		hash, err := s.scriptHash(addr)
		if err != nil {
			return nil, nil, err
		}
		hashes = append(hashes, hash)
		byHash[hash] = addr
	}
	return hashes, byHash, nil
}

// fetchAll calls method once per key, batched when the server allows it.
func fetchAll[R any](ctx context.Context, s *QueryService, method string, keys []string) (map[string]R, error) {
	if s.rpc.BatchingDisabled() {
		return fanOut(ctx, s.limiter, keys, func(ctx context.Context, key string) (R, error) {
			var r R
			err := s.rpc.Call(ctx, &r, method, key)
			return r, err
		})
	}
	return batchAll[R](ctx, s, method, keys)
}

// batchAll sends one batch with a request per key. Failed items are logged
// and left out of the result.
func batchAll[R any](ctx context.Context, s *QueryService, method string, keys []string) (map[string]R, error) {
	elems := make([]domain.BatchElem, len(keys))
	for i, key := range keys {
		elems[i] = domain.BatchElem{Method: method, Args: []any{key}, Result: new(R)}
	}

	if err := s.rpc.BatchCall(ctx, elems); err != nil {
		return nil, err
	}

	out := make(map[string]R, len(keys))
	for i, e := range elems {
		if e.Error != nil {
			s.log.Warn(ctx, "batch item failed", "method", method, "key", keys[i], "error", e.Error)
			continue
		}
		out[keys[i]] = *e.Result.(*R)
	}
	return out, nil
}

// fanOut runs fn for every key concurrently, paced by limiter. Results keep
// their key so responses can never be matched to the wrong request. The
// first failure cancels the remaining calls.
func fanOut[R any](ctx context.Context, limiter *ratelimit.Limiter, keys []string, fn func(context.Context, string) (R, error)) (map[string]R, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	out := make(map[string]R, len(keys))

	for _, key := range keys {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			r, err := fn(gctx, key)
			if err != nil {
				return err
			}
			mu.Lock()
			out[key] = r
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

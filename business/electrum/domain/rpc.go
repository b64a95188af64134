package domain

import (
	"fmt"
	"strings"
)

// Electrum method names.
const (
	MethodServerVersion       = "server.version"
	MethodServerPing          = "server.ping"
	MethodServerFeatures      = "server.features"
	MethodHeadersSubscribe    = "blockchain.headers.subscribe"
	MethodGetBalance          = "blockchain.scripthash.get_balance"
	MethodGetHistory          = "blockchain.scripthash.get_history"
	MethodGetMempool          = "blockchain.scripthash.get_mempool"
	MethodListUnspent         = "blockchain.scripthash.listunspent"
	MethodGetProfile          = "blockchain.scripthash.get_profile"
	MethodTransactionGet      = "blockchain.transaction.get"
	MethodBroadcast           = "blockchain.transaction.broadcast"
	MethodEstimateFee         = "blockchain.estimatefee"
	MethodMempoolFeeHistogram = "mempool.get_fee_histogram"
)

// CodeResponseTooLarge is returned per item when a batched response
// would exceed the server's size limit.
const CodeResponseTooLarge = -32600

const verboseUnsupported = "verbose transactions are currently unsupported"

// BatchElem is one request of a batch. Error is set per element.
type BatchElem struct {
	Method string
	Args   []any
	Result any
	Error  error
}

// RPCError is an error object returned by the server.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("electrum error %d: %s", e.Code, e.Message)
}

// IsResponseTooLarge reports whether e is the oversized-response error.
func (e *RPCError) IsResponseTooLarge() bool {
	return e.Code == CodeResponseTooLarge
}

// IsVerboseUnsupported reports whether the server refused verbose transactions.
func IsVerboseUnsupported(err error) bool {
	return err != nil && strings.Contains(err.Error(), verboseUnsupported)
}

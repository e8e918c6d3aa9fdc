package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/codectx-dev/codectx/internal/errs"
)

// HandlerFunc serves one JSON-RPC method. params is the raw params value
// (possibly empty); the returned value is marshaled into the response's
// result field.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Dispatcher owns the method registry and runs every call inside the
// top-level recover boundary spec.md §4.10 requires ("every dispatched
// method runs inside a top-level recover that converts unexpected failures
// to -32000").
type Dispatcher struct {
	methods map[string]HandlerFunc
	log     *zap.Logger
}

// NewDispatcher builds an empty dispatcher; callers register methods with
// Register before serving any transport.
func NewDispatcher(log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{methods: make(map[string]HandlerFunc), log: log}
}

// Register binds name to handler. Re-registering a name overwrites it.
func (d *Dispatcher) Register(name string, handler HandlerFunc) {
	d.methods[name] = handler
}

// Dispatch runs one request to completion and returns its response, or nil
// when req is a notification (notifications never produce a response,
// including on error, per JSON-RPC 2.0).
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) *Response {
	result, rpcErr := d.invoke(ctx, req)

	if req.IsNotification() {
		if rpcErr != nil {
			d.log.Debug("notification handler failed", zap.String("method", req.Method), zap.Error(rpcErr))
		}
		return nil
	}
	if rpcErr != nil {
		return newError(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}
	return newResult(req.ID, result)
}

// invoke looks up and runs the handler, converting a missing method and any
// panic/error into an *errs.RPCError.
func (d *Dispatcher) invoke(ctx context.Context, req Request) (result any, rpcErr *errs.RPCError) {
	defer func() {
		if r := recover(); r != nil {
			rpcErr = errs.NewRPCError(errs.CodeInternal, fmt.Sprintf("recovered panic in %s: %v", req.Method, r), nil)
		}
	}()

	handler, ok := d.methods[req.Method]
	if !ok {
		return nil, errs.NewRPCError(errs.CodeMethodNotFound, "method not found: "+req.Method, nil)
	}

	res, err := handler(ctx, req.Params)
	if err != nil {
		return nil, errs.AsRPCError(err)
	}
	return res, nil
}

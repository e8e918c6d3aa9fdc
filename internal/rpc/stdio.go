package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"

	"go.uber.org/zap"
)

// StdioServer frames JSON-RPC over stdin/stdout: one request per
// newline-terminated line in, one response per line out. Every line spawns
// its own handler goroutine (spec.md §5: "one RPC dispatcher task ...
// spawns a handler task per request so long-running tools don't block
// short ones"), so responses are written in arrival order of handler
// completion, not request order - clients must match by id.
type StdioServer struct {
	dispatcher *Dispatcher
	in         io.Reader
	out        io.Writer
	log        *zap.Logger

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

// NewStdioServer builds a server reading requests from in and writing
// responses to out.
func NewStdioServer(dispatcher *Dispatcher, in io.Reader, out io.Writer, log *zap.Logger) *StdioServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &StdioServer{dispatcher: dispatcher, in: in, out: out, log: log}
}

// Serve reads lines from in until EOF or ctx is canceled, dispatching each
// as an independent goroutine, and blocks until every in-flight handler has
// finished writing its response.
func (s *StdioServer) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		frame := make([]byte, len(line))
		copy(frame, line)

		s.wg.Add(1)
		go s.handleLine(ctx, frame)

		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		default:
		}
	}
	s.wg.Wait()
	return scanner.Err()
}

func (s *StdioServer) handleLine(ctx context.Context, line []byte) {
	defer s.wg.Done()

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.writeResponse(newError(nil, -32700, "parse error: "+err.Error(), nil))
		return
	}

	resp := s.dispatcher.Dispatch(ctx, req)
	if resp == nil {
		return // notification: no response frame
	}
	s.writeResponse(resp)
}

func (s *StdioServer) writeResponse(resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("marshal response failed", zap.Error(err))
		return
	}
	data = append(data, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(data); err != nil {
		s.log.Error("write response failed", zap.Error(err))
	}
}

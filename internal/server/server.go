package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	. "github.com/modelmux/modelmux/internal/logging"
	"github.com/modelmux/modelmux/internal/tools"
)

const protocolVersion = "2024-11-05"

// maxLineBytes bounds one JSON-RPC line.
const maxLineBytes = 10 * 1024 * 1024

// Server reads requests line by line from in and writes responses to
// out. Logs go to stderr only; stdout is the wire.
type Server struct {
	tools   *tools.Registry
	name    string
	version string

	in  io.Reader
	out io.Writer

	writeMu sync.Mutex
}

// New builds a server over the given streams.
func New(registry *tools.Registry, name, version string, in io.Reader, out io.Writer) *Server {
	return &Server{
		tools:   registry,
		name:    name,
		version: version,
		in:      in,
		out:     out,
	}
}

// Run processes requests until the input stream closes or the context
// is canceled. Tool calls run on the loop goroutine: the transport is a
// single ordered stream and callers pipeline via ids, not concurrency.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	L_info("server: listening on stdio", "name", s.name, "version", s.version)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeError(nil, CodeParseError, fmt.Sprintf("parse error: %v", err))
			continue
		}
		s.dispatch(ctx, &req)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	L_info("server: stdin closed, shutting down")
	return nil
}

func (s *Server) dispatch(ctx context.Context, req *Request) {
	L_debug("server: request", "method", req.Method)

	switch req.Method {
	case "initialize":
		s.writeResult(req.ID, initializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    capabilities{Tools: toolsCapability{ListChanged: false}},
			ServerInfo:      serverInfo{Name: s.name, Version: s.version},
		})
	case "notifications/initialized":
		// Notification; nothing to answer.
	case "tools/list":
		s.writeResult(req.ID, s.listTools())
	case "tools/call":
		s.handleToolCall(ctx, req)
	case "ping":
		s.writeResult(req.ID, map[string]any{})
	default:
		if req.ID == nil {
			// Unknown notification; ignore per spec.
			return
		}
		s.writeError(req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

func (s *Server) listTools() toolsListResult {
	all := s.tools.All()
	result := toolsListResult{Tools: make([]toolDescriptor, 0, len(all))}
	for _, t := range all {
		result.Tools = append(result.Tools, toolDescriptor{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return result
}

func (s *Server) handleToolCall(ctx context.Context, req *Request) {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(req.ID, CodeInvalidParams, fmt.Sprintf("invalid params: %v", err))
		return
	}

	tool, ok := s.tools.Get(params.Name)
	if !ok {
		s.writeError(req.ID, CodeInvalidParams, fmt.Sprintf("unknown tool %q", params.Name))
		return
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	envelope := tool.Execute(ctx, params.Arguments)

	// The whole envelope travels as one JSON text block; the error flag
	// mirrors the envelope status for clients that only look at isError.
	payload, err := json.Marshal(envelope)
	if err != nil {
		s.writeError(req.ID, CodeInternalError, fmt.Sprintf("encode envelope: %v", err))
		return
	}
	s.writeResult(req.ID, toolCallResult{
		Content: []contentBlock{{Type: "text", Text: string(payload)}},
		IsError: envelope.Status == tools.StatusError,
	})
}

func (s *Server) writeResult(id json.RawMessage, result any) {
	s.write(&Response{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) writeError(id json.RawMessage, code int, message string) {
	s.write(&Response{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}})
}

func (s *Server) write(resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		L_error("server: response marshal failed", "error", err)
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		L_error("server: write failed", "error", err)
	}
}

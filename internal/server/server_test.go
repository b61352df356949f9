package server

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelmux/modelmux/internal/tools"
)

// echoTool answers with its argument, no driver behind it.
type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "Echoes the prompt back." }
func (echoTool) InputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"prompt": map[string]any{"type": "string"}},
		"required":   []string{"prompt"},
	}
}

func (echoTool) Execute(ctx context.Context, args map[string]any) *tools.Envelope {
	prompt, _ := args["prompt"].(string)
	if prompt == "" {
		return &tools.Envelope{Status: tools.StatusError, Content: "prompt is required", ContentType: "text"}
	}
	return &tools.Envelope{Status: tools.StatusSuccess, Content: prompt, ContentType: "text"}
}

func runServer(t *testing.T, requests ...string) []map[string]any {
	t.Helper()
	registry := tools.NewRegistry()
	registry.Register(echoTool{})

	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	var out bytes.Buffer
	srv := New(registry, "modelmux", "test", in, &out)

	if err := srv.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var responses []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var resp map[string]any
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("response line not JSON: %q: %v", line, err)
		}
		responses = append(responses, resp)
	}
	return responses
}

func TestInitializeHandshake(t *testing.T) {
	responses := runServer(t,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
	)
	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1 (notification is silent)", len(responses))
	}
	result := responses[0]["result"].(map[string]any)
	if result["protocolVersion"] != protocolVersion {
		t.Errorf("protocolVersion = %v", result["protocolVersion"])
	}
	info := result["serverInfo"].(map[string]any)
	if info["name"] != "modelmux" || info["version"] != "test" {
		t.Errorf("serverInfo = %v", info)
	}
}

func TestToolsList(t *testing.T) {
	responses := runServer(t, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	result := responses[0]["result"].(map[string]any)
	list := result["tools"].([]any)
	if len(list) != 1 {
		t.Fatalf("tools = %v", list)
	}
	tool := list[0].(map[string]any)
	if tool["name"] != "echo" || tool["inputSchema"] == nil {
		t.Errorf("descriptor = %v", tool)
	}
}

func TestToolCallWrapsEnvelope(t *testing.T) {
	responses := runServer(t,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"prompt":"ping"}}}`)
	result := responses[0]["result"].(map[string]any)
	content := result["content"].([]any)
	block := content[0].(map[string]any)
	if block["type"] != "text" {
		t.Errorf("content type = %v", block["type"])
	}

	var envelope tools.Envelope
	if err := json.Unmarshal([]byte(block["text"].(string)), &envelope); err != nil {
		t.Fatalf("envelope not JSON: %v", err)
	}
	if envelope.Status != tools.StatusSuccess || envelope.Content != "ping" {
		t.Errorf("envelope = %+v", envelope)
	}
	if result["isError"] != nil {
		t.Errorf("isError should be absent on success, got %v", result["isError"])
	}
}

func TestToolCallErrorSetsIsError(t *testing.T) {
	responses := runServer(t,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"echo","arguments":{}}}`)
	result := responses[0]["result"].(map[string]any)
	if result["isError"] != true {
		t.Errorf("isError = %v, want true", result["isError"])
	}
}

func TestToolCallUnknownTool(t *testing.T) {
	responses := runServer(t,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"nope","arguments":{}}}`)
	errObj := responses[0]["error"].(map[string]any)
	if int(errObj["code"].(float64)) != CodeInvalidParams {
		t.Errorf("code = %v", errObj["code"])
	}
}

// Request ids round-trip verbatim whatever JSON type the caller used.
func TestIDRoundTrip(t *testing.T) {
	responses := runServer(t,
		`{"jsonrpc":"2.0","id":"str-id","method":"ping"}`,
		`{"jsonrpc":"2.0","id":77,"method":"ping"}`,
	)
	if responses[0]["id"] != "str-id" {
		t.Errorf("string id = %v", responses[0]["id"])
	}
	if responses[1]["id"] != float64(77) {
		t.Errorf("numeric id = %v", responses[1]["id"])
	}
}

func TestUnknownMethod(t *testing.T) {
	responses := runServer(t,
		`{"jsonrpc":"2.0","id":6,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","method":"notifications/unknown"}`,
	)
	if len(responses) != 1 {
		t.Fatalf("unknown notifications must stay silent, got %d responses", len(responses))
	}
	errObj := responses[0]["error"].(map[string]any)
	if int(errObj["code"].(float64)) != CodeMethodNotFound {
		t.Errorf("code = %v", errObj["code"])
	}
}

func TestParseError(t *testing.T) {
	responses := runServer(t, `{this is not json`)
	errObj := responses[0]["error"].(map[string]any)
	if int(errObj["code"].(float64)) != CodeParseError {
		t.Errorf("code = %v", errObj["code"])
	}
}

func TestBlankLinesIgnored(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(echoTool{})
	in := strings.NewReader("\n\n" + `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n\n")
	var out bytes.Buffer
	if err := New(registry, "m", "t", in, &out).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(strings.TrimSpace(out.String()), "\n") + 1; n != 1 {
		t.Errorf("got %d response lines, want 1", n)
	}
}

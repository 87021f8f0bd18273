package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// stubTool returns a canned result.
type stubTool struct {
	name    string
	result  string
	success bool
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub " + s.name }
func (s *stubTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}
func (s *stubTool) Execute(_ context.Context, args map[string]any) (string, bool) {
	if id, ok := args["id"].(string); ok {
		return s.result + " " + id, s.success
	}
	return s.result, s.success
}

func stubRegistry() *Registry {
	r := NewRegistry()
	r.Register(
		&stubTool{name: "echo", result: "ok", success: true},
		&stubTool{name: "broken", result: "boom"},
	)
	return r
}

// exchange feeds lines to a server and decodes each response line.
func exchange(t *testing.T, r *Registry, lines ...string) []response {
	t.Helper()
	var out bytes.Buffer
	srv := NewServerWithIO(r, strings.NewReader(strings.Join(lines, "\n")+"\n"), &out).WithVersion("1.2.3")
	if err := srv.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var resps []response
	dec := json.NewDecoder(&out)
	for dec.More() {
		var resp response
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("decode response: %v\n%s", err, out.String())
		}
		resps = append(resps, resp)
	}
	return resps
}

// resultAs re-decodes a response result into v.
func resultAs(t *testing.T, resp response, v any) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	data, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal result: %v\n%s", err, data)
	}
}

func TestInitialize(t *testing.T) {
	resps := exchange(t, stubRegistry(), `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	if len(resps) != 1 {
		t.Fatalf("got %d responses, want 1", len(resps))
	}

	var got initializeResult
	resultAs(t, resps[0], &got)
	want := serverInfo{Name: serverName, Version: "1.2.3"}
	if diff := cmp.Diff(want, got.ServerInfo); diff != "" {
		t.Errorf("serverInfo mismatch (-want +got):\n%s", diff)
	}
	if got.ProtocolVersion != protocolVersion {
		t.Errorf("protocolVersion = %q, want %q", got.ProtocolVersion, protocolVersion)
	}
	if _, ok := got.Capabilities["tools"]; !ok {
		t.Error("capabilities do not advertise tools")
	}
}

func TestNotificationsGetNoResponse(t *testing.T) {
	resps := exchange(t, stubRegistry(),
		`{"jsonrpc":"2.0","method":"initialized"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"echo"}}`,
	)
	if len(resps) != 0 {
		t.Errorf("got %d responses to notifications, want 0", len(resps))
	}
}

func TestToolsList(t *testing.T) {
	resps := exchange(t, stubRegistry(), `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)

	var got struct {
		Tools []toolDefinition `json:"tools"`
	}
	resultAs(t, resps[0], &got)
	var names []string
	for _, d := range got.Tools {
		names = append(names, d.Name)
		if d.InputSchema == nil {
			t.Errorf("%s has no inputSchema", d.Name)
		}
	}
	if diff := cmp.Diff([]string{"echo", "broken"}, names); diff != "" {
		t.Errorf("tool order mismatch (-want +got):\n%s", diff)
	}
}

func TestToolsCall(t *testing.T) {
	tests := []struct {
		name    string
		params  string
		text    string
		isError bool
	}{
		{"success", `{"name":"echo","arguments":{}}`, "ok", false},
		{"with arguments", `{"name":"echo","arguments":{"id":"Paris"}}`, "ok Paris", false},
		{"tool failure", `{"name":"broken","arguments":{}}`, "boom", true},
		{"unknown tool", `{"name":"nope","arguments":{}}`, "unknown tool: nope", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resps := exchange(t, stubRegistry(),
				`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":`+tt.params+`}`)
			var got toolCallResult
			resultAs(t, resps[0], &got)
			want := textResult(tt.text, tt.isError)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProtocolErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		code int
	}{
		{"invalid json", `not valid json`, codeParseError},
		{"unknown method", `{"jsonrpc":"2.0","id":5,"method":"resources/list"}`, codeMethodNotFound},
		{"bad call params", `{"jsonrpc":"2.0","id":6,"method":"tools/call","params":"echo"}`, codeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resps := exchange(t, stubRegistry(), tt.line)
			if len(resps) != 1 {
				t.Fatalf("got %d responses, want 1", len(resps))
			}
			if resps[0].Error == nil {
				t.Fatalf("expected an error, got result %v", resps[0].Result)
			}
			if resps[0].Error.Code != tt.code {
				t.Errorf("code = %d, want %d", resps[0].Error.Code, tt.code)
			}
		})
	}
}

func TestSession(t *testing.T) {
	resps := exchange(t, stubRegistry(),
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`{"jsonrpc":"2.0","id":"two","method":"ping"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{}}}`,
	)
	var ids []string
	for _, r := range resps {
		ids = append(ids, string(r.ID))
	}
	if diff := cmp.Diff([]string{"1", `"two"`, "3"}, ids); diff != "" {
		t.Errorf("response ids mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	srv := NewServerWithIO(stubRegistry(), strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out)
	if err := srv.Run(ctx); err != context.Canceled {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Errorf("wrote %q after cancellation", out.String())
	}
}

func TestRegistryReplacesByName(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "a", result: "one"}, &stubTool{name: "b"})
	r.Register(&stubTool{name: "a", result: "two", success: true})

	if diff := cmp.Diff([]string{"a", "b"}, r.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	out, ok, err := r.Execute(context.Background(), "a", nil)
	if err != nil || !ok || out != "two" {
		t.Errorf("Execute(a) = %q, %v, %v; want \"two\", true, nil", out, ok, err)
	}
}

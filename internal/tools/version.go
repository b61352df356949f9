package tools

import (
	"context"
	"fmt"
	"runtime"
)

// Version reports the server build. Set at link time.
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// VersionTool reports server and runtime version information.
type VersionTool struct{}

// NewVersion builds the tool.
func NewVersion() *VersionTool { return &VersionTool{} }

func (t *VersionTool) Name() string { return "version" }

func (t *VersionTool) Description() string {
	return "Report the server version and runtime information"
}

func (t *VersionTool) InputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *VersionTool) Execute(ctx context.Context, args map[string]any) *Envelope {
	content := fmt.Sprintf("modelmux %s (built %s, %s %s/%s)",
		Version, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return &Envelope{
		Status:      StatusSuccess,
		Content:     content,
		ContentType: "text",
		Metadata:    metadata("version", "", ""),
	}
}

package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widget-estimate/adapters/widgets"
	"widget-estimate/core/widget"
)

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()

	cfg, err := widget.Parse([]byte(`{
		"name": "Acme Movers",
		"steps": {
			"project-scope": {"options": [{"id": "2br", "title": "2 Bedroom", "estimation": {"base_price": 500}}]}
		}
	}`))
	require.NoError(t, err)

	provider := widgets.NewMemoryProvider()
	provider.Put("acme", cfg)

	srv, err := NewServer(&ServerOptions{Widgets: provider})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callText(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotNil(t, result)

	var b strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String(), result.IsError
}

func TestNewServerRequiresProvider(t *testing.T) {
	_, err := NewServer(&ServerOptions{})
	assert.Error(t, err)
}

func TestListWidgetsTool(t *testing.T) {
	session := connect(t)
	out, isErr := callText(t, session, "list_widgets", map[string]any{})
	assert.False(t, isErr)
	assert.Contains(t, out, "acme: Acme Movers (1 steps)")
}

func TestGetWidgetConfigTool(t *testing.T) {
	session := connect(t)

	out, isErr := callText(t, session, "get_widget_config", map[string]any{"widgetKey": "acme"})
	assert.False(t, isErr)
	assert.Contains(t, out, `"base_price": 500`)

	_, isErr = callText(t, session, "get_widget_config", map[string]any{"widgetKey": "missing"})
	assert.True(t, isErr)
}

func TestComputeEstimateTool(t *testing.T) {
	session := connect(t)

	out, isErr := callText(t, session, "compute_estimate", map[string]any{
		"widgetKey": "acme",
		"responses": map[string]any{
			"project-scope": map[string]any{"selectedOption": "2br"},
		},
	})
	require.False(t, isErr, out)
	assert.Contains(t, out, "## Acme Movers Estimate")
	assert.Contains(t, out, "| Base Service | 2 Bedroom move - base service | $500.00 |")
	assert.Contains(t, out, "**Total:** $500.00 USD")
}

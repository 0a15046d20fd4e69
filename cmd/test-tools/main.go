package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"covidash/internal/config"
)

var expectedTools = []string{"list_countries", "get_statistics", "get_chart_config"}

func main() {
	// Same resolution as the server: config file, then environment.
	settings, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if settings.Collector.APIKey == "" {
		log.Fatalf("❌ No API key: set %s or [api] key in %s", config.EnvAPIKey, config.DefaultConfigPath())
	}

	fmt.Println("🧪 Testing covidash MCP Server and Tool Calling")
	fmt.Println("===============================================")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Build path to the covidash binary
	serverPath := findServerBinary()
	if serverPath == "" {
		log.Fatal("❌ covidash binary not found. Run: go build -o covidash .")
	}
	fmt.Println("✅ Test 1: covidash binary found")

	// Start the MCP server
	cmd := exec.Command(serverPath, "mcp", "--log-level", "warn")
	cmd.Stderr = os.Stderr
	transport := &mcp.CommandTransport{Command: cmd}

	// Create client
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	// Connect to server
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MCP server: %v", err)
	}
	defer session.Close()
	fmt.Println("✅ Test 2: Connected to MCP server")

	// List available tools
	fmt.Println("\n✓ Test 3: Listing available tools")
	listResult, err := session.ListTools(ctx, nil)
	if err != nil {
		log.Fatalf("❌ Failed to list tools: %v", err)
	}
	fmt.Printf("  Found %d tools:\n", len(listResult.Tools))
	found := make(map[string]bool)
	for _, tool := range listResult.Tools {
		found[tool.Name] = true
		fmt.Printf("  - %s: %s\n", tool.Name, tool.Description)
	}
	for _, name := range expectedTools {
		if !found[name] {
			fmt.Printf("  ❌ Missing tool %s\n", name)
		}
	}

	failed := 0
	// Calls are paced by the server, one per second.
	failed += runTool(ctx, session, 4, "list_countries", map[string]interface{}{"prefix": "ger"})
	failed += runTool(ctx, session, 5, "get_statistics", map[string]interface{}{"code": ""})
	failed += runTool(ctx, session, 6, "get_chart_config", map[string]interface{}{"code": "DE"})

	fmt.Println("\n===============================================")
	if failed > 0 {
		fmt.Printf("❌ %d tool call(s) failed\n", failed)
		os.Exit(1)
	}
	fmt.Println("✅ All MCP tool calling tests complete!")
	fmt.Println("\n💡 To test interactively, run: go run ./cmd/mcp-client ./covidash mcp")
}

// runTool calls one tool and prints a preview of the answer. It returns 1 on failure.
func runTool(ctx context.Context, session *mcp.ClientSession, n int, name string, args map[string]interface{}) int {
	fmt.Printf("\n✓ Test %d: Testing %s tool\n", n, name)
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		fmt.Printf("  ❌ %s failed: %v\n", name, err)
		return 1
	}
	if result.IsError {
		fmt.Printf("  ❌ %s returned an error:\n", name)
	} else {
		fmt.Printf("  ✅ %s called successfully\n", name)
	}
	for i, content := range result.Content {
		if i >= 3 {
			fmt.Printf("  ... and %d more content items\n", len(result.Content)-i)
			break
		}
		switch v := content.(type) {
		case *mcp.TextContent:
			preview := v.Text
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			fmt.Printf("    %s\n", preview)
		default:
			fmt.Printf("    [%T]\n", content)
		}
	}
	if result.IsError {
		return 1
	}
	return 0
}

func findServerBinary() string {
	candidates := []string{
		"./covidash",
		"../../covidash",
		"../../../covidash",
	}
	for _, p := range candidates {
		if abs, err := filepath.Abs(p); err == nil {
			if _, err := os.Stat(abs); err == nil {
				return abs
			}
		}
	}
	return ""
}

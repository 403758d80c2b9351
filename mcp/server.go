// Package mcp exposes the generator as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sweetpotato0/keyara/middleware"
	"github.com/sweetpotato0/keyara/pkg/logging"
)

// Tool names.
const (
	ToolGenerate   = "generate"
	ToolListModels = "list_models"
)

// Generator is what the tools need from the generator.
type Generator interface {
	middleware.Generator
	CandidateIDs() []string
}

// Info describes the server advertised to MCP clients.
type Info struct {
	Name    string
	Title   string
	Version string
}

// GenerateArgs are the arguments of the generate tool.
type GenerateArgs struct {
	Prompt string `json:"prompt" jsonschema:"question for the Keyara rental assistant"`
}

// ListModelsArgs are the arguments of the list_models tool.
type ListModelsArgs struct{}

// Tools implements the tool handlers over a generator and middleware chain.
type Tools struct {
	gen    Generator
	chain  *middleware.MiddlewareChain
	logger *slog.Logger
}

// NewTools creates the tool handlers. A nil chain runs the generator directly.
func NewTools(gen Generator, chain *middleware.MiddlewareChain) *Tools {
	if chain == nil {
		chain = middleware.NewChain()
	}
	return &Tools{gen: gen, chain: chain, logger: logging.WithComponent("mcp")}
}

// NewServer builds an MCP server with the generate and list_models tools.
func NewServer(tools *Tools, info Info) *sdkmcp.Server {
	if info.Name == "" {
		info.Name = "keyara"
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    info.Name,
		Title:   info.Title,
		Version: info.Version,
	}, nil)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolGenerate,
		Description: "Answer a rental question as Keyara, the RentEase assistant",
	}, tools.Generate)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolListModels,
		Description: "List the model candidates in the order they are tried",
	}, tools.ListModels)

	return server
}

// Generate handles the generate tool.
func (t *Tools) Generate(ctx context.Context, req *sdkmcp.CallToolRequest, args GenerateArgs) (*sdkmcp.CallToolResult, any, error) {
	mctx := middleware.NewContext(ctx, args.Prompt)
	mctx.Set(middleware.MetadataClientKey, "mcp")
	if err := t.chain.Execute(mctx, middleware.GenerateHandler(t.gen)); err != nil {
		t.logger.WarnContext(ctx, "generate tool failed", "error", err)
		return nil, nil, fmt.Errorf("generate: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: mctx.Response},
		},
	}, nil, nil
}

// ListModels handles the list_models tool.
func (t *Tools) ListModels(ctx context.Context, req *sdkmcp.CallToolRequest, _ ListModelsArgs) (*sdkmcp.CallToolResult, any, error) {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: strings.Join(t.gen.CandidateIDs(), "\n")},
		},
	}, nil, nil
}

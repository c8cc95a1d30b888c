package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"vitals/internal/gates"
	"vitals/internal/graph"
)

// registerTools registers all vitals MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "vitals_pressures",
		Description: "Read the current pressure for every node",
	}, s.handlePressures)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "vitals_gates",
		Description: "Evaluate health gates (state, pass, confidence) for one node or all nodes",
	}, s.handleGates)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "vitals_apply",
		Description: "Apply an external perturbation to a node, damped by the node's mass",
	}, s.handleApply)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "vitals_propagate",
		Description: "Run one propagation cycle across all edges",
	}, s.handlePropagate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "vitals_tick",
		Description: "Decay all pressures toward zero for the given elapsed hours",
	}, s.handleTick)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "vitals_snapshot",
		Description: "Write an immutable named snapshot of the current state",
	}, s.handleSnapshot)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "vitals_outcome",
		Description: "Record a prediction-vs-outcome pair for threshold calibration",
	}, s.handleOutcome)
}

// registerResources registers MCP resources for auto-loading into context.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         "vitals://gates/summary",
		Name:        "vitals-gate-summary",
		Description: "Current health gate per life dimension, as a markdown table.",
		MIMEType:    "text/markdown",
	}, s.handleGateSummaryResource)
}

func (s *Server) handlePressures(ctx context.Context, req *sdk.CallToolRequest, args PressuresInput) (*sdk.CallToolResult, PressuresOutput, error) {
	s.mu.Lock()
	p := s.engine.Pressures()
	s.mu.Unlock()

	return nil, PressuresOutput{Pressures: p}, nil
}

func (s *Server) handleGates(ctx context.Context, req *sdk.CallToolRequest, args GatesInput) (*sdk.CallToolResult, GatesOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if args.Node != "" {
		g, err := s.engine.Gate(args.Node)
		if err != nil {
			return nil, GatesOutput{}, err
		}
		return nil, GatesOutput{Gates: []GateView{gateView(g)}, Count: 1}, nil
	}

	all, err := s.engine.Gates()
	if err != nil {
		return nil, GatesOutput{}, err
	}

	views := make([]GateView, 0, len(all))
	for _, g := range all {
		views = append(views, gateView(g))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Node < views[j].Node })

	return nil, GatesOutput{Gates: views, Count: len(views)}, nil
}

func (s *Server) handleApply(ctx context.Context, req *sdk.CallToolRequest, args ApplyInput) (*sdk.CallToolResult, ApplyOutput, error) {
	s.mu.Lock()
	res, err := s.engine.Apply(args.Node, graph.Motion(args.Motion), args.Delta, args.Friction, args.Source)
	s.mu.Unlock()
	if err != nil {
		return nil, ApplyOutput{}, err
	}

	return nil, ApplyOutput{
		Node:    res.Node,
		Before:  res.Before,
		After:   res.After,
		Applied: res.Applied,
		Damping: res.Damping,
	}, nil
}

func (s *Server) handlePropagate(ctx context.Context, req *sdk.CallToolRequest, args PropagateInput) (*sdk.CallToolResult, PropagateOutput, error) {
	s.mu.Lock()
	applied, err := s.engine.Propagate(args.Dt)
	s.mu.Unlock()
	if err != nil {
		return nil, PropagateOutput{}, err
	}
	return nil, PropagateOutput{Applied: applied}, nil
}

func (s *Server) handleTick(ctx context.Context, req *sdk.CallToolRequest, args TickInput) (*sdk.CallToolResult, TickOutput, error) {
	s.mu.Lock()
	decayed, err := s.engine.Tick(time.Duration(args.ElapsedHours * float64(time.Hour)))
	s.mu.Unlock()
	if err != nil {
		return nil, TickOutput{}, err
	}
	return nil, TickOutput{Decayed: decayed}, nil
}

func (s *Server) handleSnapshot(ctx context.Context, req *sdk.CallToolRequest, args SnapshotInput) (*sdk.CallToolResult, SnapshotOutput, error) {
	s.mu.Lock()
	info, err := s.engine.Snapshot(args.Name)
	s.mu.Unlock()
	if err != nil {
		return nil, SnapshotOutput{}, err
	}
	return nil, SnapshotOutput{Name: info.Name}, nil
}

func (s *Server) handleOutcome(ctx context.Context, req *sdk.CallToolRequest, args OutcomeInput) (*sdk.CallToolResult, OutcomeOutput, error) {
	s.mu.Lock()
	err := s.engine.RecordOutcome(args.Node, args.Predicted, args.Actual)
	s.mu.Unlock()
	if err != nil {
		return nil, OutcomeOutput{}, err
	}
	return nil, OutcomeOutput{Recorded: true}, nil
}

// handleGateSummaryResource renders the gate table for context injection.
func (s *Server) handleGateSummaryResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	s.mu.Lock()
	all, err := s.engine.Gates()
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("evaluating gates: %w", err)
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      "vitals://gates/summary",
				MIMEType: "text/markdown",
				Text:     gateSummaryMarkdown(all),
			},
		},
	}, nil
}

// gateSummaryMarkdown formats all gates as a markdown table, nodes sorted,
// gates that passed flagged.
func gateSummaryMarkdown(all map[string]gates.Gate) string {
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("# Vitals Gate Summary\n\n")
	b.WriteString("| Node | Pressure | State | Passed | Confidence | Display |\n")
	b.WriteString("|------|----------|-------|--------|------------|--------|\n")
	for _, id := range ids {
		g := all[id]
		passed := ""
		if g.Passed {
			passed = "yes"
		}
		fmt.Fprintf(&b, "| %s | %.2f | %s | %s | %.2f | %s |\n",
			g.Node, g.Pressure, g.State, passed, g.Confidence, g.DisplayMode)
	}
	return b.String()
}

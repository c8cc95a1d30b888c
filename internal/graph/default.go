package graph

import "time"

// defaultHalfLives models volatile vs durable dimensions: external pressure
// fades within days while financial pressure lingers for weeks.
var defaultHalfLives = map[Layer]time.Duration{
	LayerFinancial:   45 * 24 * time.Hour,
	LayerBiometric:   7 * 24 * time.Hour,
	LayerOperational: 14 * 24 * time.Hour,
	LayerCustomer:    30 * 24 * time.Hour,
	LayerExternal:    3 * 24 * time.Hour,
}

// DefaultTopology returns the built-in life-dimension graph. It is returned
// as a fresh value on every call so callers can modify their copy without
// affecting anyone else; there is no shared registry.
func DefaultTopology() Topology {
	return Topology{
		Nodes: []Node{
			{ID: "cashflow", Label: "Cash Flow", Layer: LayerFinancial, Resting: 0.2, EntropyRate: 0.004, Mass: 1.4, ThetaLow: 0.35, ThetaHigh: 0.75},
			{ID: "runway", Label: "Financial Runway", Layer: LayerFinancial, Resting: 0.15, EntropyRate: 0.002, Mass: 1.8, ThetaLow: 0.3, ThetaHigh: 0.8},
			{ID: "sleep", Label: "Sleep Debt", Layer: LayerBiometric, Resting: 0.25, EntropyRate: 0.01, Mass: 0.8, ThetaLow: 0.4, ThetaHigh: 0.7},
			{ID: "strain", Label: "Physical Strain", Layer: LayerBiometric, Resting: 0.2, EntropyRate: 0.008, Mass: 0.9, ThetaLow: 0.35, ThetaHigh: 0.75},
			{ID: "backlog", Label: "Work Backlog", Layer: LayerOperational, Resting: 0.3, EntropyRate: 0.012, Mass: 1.0, ThetaLow: 0.4, ThetaHigh: 0.8},
			{ID: "maintenance", Label: "Deferred Maintenance", Layer: LayerOperational, Resting: 0.1, EntropyRate: 0.006, Mass: 1.2, ThetaLow: 0.3, ThetaHigh: 0.7},
			{ID: "obligations", Label: "Social Obligations", Layer: LayerCustomer, Resting: 0.2, EntropyRate: 0.005, Mass: 1.0, ThetaLow: 0.35, ThetaHigh: 0.75},
			{ID: "reputation", Label: "Reputation", Layer: LayerCustomer, Resting: 0.1, EntropyRate: 0.002, Mass: 1.6, ThetaLow: 0.3, ThetaHigh: 0.8},
			{ID: "weather", Label: "Environmental Stress", Layer: LayerExternal, Resting: 0.15, EntropyRate: 0.0, Mass: 0.5, ThetaLow: 0.4, ThetaHigh: 0.8},
			{ID: "market", Label: "Market Conditions", Layer: LayerExternal, Resting: 0.2, EntropyRate: 0.0, Mass: 0.7, ThetaLow: 0.4, ThetaHigh: 0.85},
		},
		Edges: []Edge{
			// Financial stress leaks everywhere it is depended on.
			{From: "cashflow", To: "runway", Type: EdgeDependency, Weight: 0.8, Conductivity: 0.9},
			{From: "cashflow", To: "obligations", Type: EdgeDependency, Weight: 0.5, Conductivity: 0.7},
			{From: "market", To: "cashflow", Type: EdgeDependency, Weight: 0.6, Conductivity: 0.8},
			// Sleep debt and strain reinforce each other.
			{From: "sleep", To: "strain", Type: EdgeAmplify, Weight: 0.7, Conductivity: 0.8},
			{From: "strain", To: "sleep", Type: EdgeAmplify, Weight: 0.5, Conductivity: 0.8},
			// Backlog pressure drives biometric stress and reputation risk.
			{From: "backlog", To: "sleep", Type: EdgeDependency, Weight: 0.6, Conductivity: 0.75},
			{From: "backlog", To: "reputation", Type: EdgeAmplify, Weight: 0.4, Conductivity: 0.6},
			{From: "weather", To: "strain", Type: EdgeDependency, Weight: 0.4, Conductivity: 0.6},
			// A healthy runway cushions cash flow shocks.
			{From: "runway", To: "cashflow", Type: EdgeBuffer, Weight: 0.6, Conductivity: 0.7},
			{From: "maintenance", To: "backlog", Type: EdgeBuffer, Weight: 0.5, Conductivity: 0.6},
			// Low-pressure substitutes relieve their counterparts.
			{From: "maintenance", To: "strain", Type: EdgeSubstitution, Weight: 0.4, Conductivity: 0.5},
			{From: "reputation", To: "obligations", Type: EdgeSubstitution, Weight: 0.5, Conductivity: 0.5},
		},
	}
}

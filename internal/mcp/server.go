// Package mcp exposes the simulator over the Model Context Protocol so an
// agent can list scenarios, run single episodes and launch experiments
// through stdio tool calls.
package mcp

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"collectsim/internal/episode"
	"collectsim/internal/experiment"
	"collectsim/internal/format"
	"collectsim/internal/logging"
	"collectsim/internal/policy"
	"collectsim/internal/scenario"
)

// Server wraps the MCP SDK server with the simulation tools.
type Server struct {
	MCPServer *sdkmcp.Server
}

// NewServer creates an MCP server with scenario, episode and experiment tools.
func NewServer(version string) *Server {
	s := &Server{}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "collectsim", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_scenarios",
		Description: "List the embedded simulation scenarios with their descriptions.",
	}, s.handleListScenarios)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "simulate_episode",
		Description: "Run one simulated collection episode with a given scenario, policy and seed. Returns the episode summary.",
	}, s.handleSimulateEpisode)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "run_experiment",
		Description: "Run a Monte Carlo experiment comparing policies over repeated episodes. Returns per-policy statistics and pairwise significance tests.",
	}, s.handleRunExperiment)
}

// --- Tool input/output types ---

type listScenariosInput struct{}

type scenarioInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Days        int    `json:"days"`
	Debtors     int    `json:"debtors"`
	Collectors  int    `json:"collectors"`
}

type listScenariosOutput struct {
	Scenarios []scenarioInfo `json:"scenarios"`
}

type simulateEpisodeInput struct {
	Scenario string `json:"scenario" jsonschema:"scenario name from list_scenarios"`
	Policy   string `json:"policy" jsonschema:"visit selection policy (ucb, thompson, greedy)"`
	Seed     uint64 `json:"seed,omitempty" jsonschema:"random seed (0 = scenario default)"`
	Days     int    `json:"days,omitempty" jsonschema:"override the simulated horizon in days"`
}

type simulateEpisodeOutput struct {
	Summary *episode.Summary `json:"summary"`
}

type runExperimentInput struct {
	Scenario string   `json:"scenario" jsonschema:"scenario name from list_scenarios"`
	Policies []string `json:"policies,omitempty" jsonschema:"policies to compare (default from scenario)"`
	Runs     int      `json:"runs,omitempty" jsonschema:"repetitions per policy (default from scenario)"`
	Parallel int      `json:"parallel,omitempty" jsonschema:"worker count (default NumCPU)"`
	Seed     uint64   `json:"seed,omitempty" jsonschema:"base seed (0 = scenario default)"`
}

type runExperimentOutput struct {
	Report   *experiment.Report `json:"report"`
	Rendered string             `json:"rendered"`
}

// --- Tool handlers ---

func (s *Server) handleListScenarios(_ context.Context, _ *sdkmcp.CallToolRequest, _ listScenariosInput) (*sdkmcp.CallToolResult, listScenariosOutput, error) {
	var out listScenariosOutput
	for _, name := range scenario.List() {
		sc, err := scenario.Load(name)
		if err != nil {
			return nil, listScenariosOutput{}, fmt.Errorf("load scenario %q: %w", name, err)
		}
		out.Scenarios = append(out.Scenarios, scenarioInfo{
			Name:        sc.Name,
			Description: sc.Description,
			Days:        sc.Days,
			Debtors:     sc.Debtors.Count,
			Collectors:  len(sc.Collectors),
		})
	}
	return nil, out, nil
}

func (s *Server) handleSimulateEpisode(ctx context.Context, _ *sdkmcp.CallToolRequest, input simulateEpisodeInput) (*sdkmcp.CallToolResult, simulateEpisodeOutput, error) {
	sc, err := scenario.Load(input.Scenario)
	if err != nil {
		return nil, simulateEpisodeOutput{}, err
	}
	seed := input.Seed
	if seed == 0 {
		seed = sc.Seed
	}

	pol, err := policy.New(input.Policy, policy.Config{
		UCBC:           sc.Experiment.UCBC,
		ScaledThompson: sc.Experiment.ScaledThompson,
		RewardScale:    sc.Debtors.DebtMax,
	}, rand.New(rand.NewPCG(seed, 0xda3e39cb94b95bdb)))
	if err != nil {
		return nil, simulateEpisodeOutput{}, err
	}

	ep, err := episode.New(episode.Config{
		Scenario: sc,
		Policy:   pol,
		Seed:     seed,
		Days:     input.Days,
	})
	if err != nil {
		return nil, simulateEpisodeOutput{}, err
	}

	logging.New("mcp").Info("simulating episode",
		"scenario", input.Scenario, "policy", input.Policy, "seed", seed)
	sum, err := ep.Run(ctx)
	if err != nil {
		return nil, simulateEpisodeOutput{}, fmt.Errorf("simulate episode: %w", err)
	}
	return nil, simulateEpisodeOutput{Summary: sum}, nil
}

func (s *Server) handleRunExperiment(ctx context.Context, _ *sdkmcp.CallToolRequest, input runExperimentInput) (*sdkmcp.CallToolResult, runExperimentOutput, error) {
	sc, err := scenario.Load(input.Scenario)
	if err != nil {
		return nil, runExperimentOutput{}, err
	}
	parallel := input.Parallel
	if parallel < 1 {
		parallel = runtime.NumCPU()
	}

	rep, err := experiment.Run(ctx, sc, experiment.Options{
		Policies: input.Policies,
		Runs:     input.Runs,
		Parallel: parallel,
		BaseSeed: input.Seed,
	})
	if err != nil {
		return nil, runExperimentOutput{}, fmt.Errorf("run experiment: %w", err)
	}
	return nil, runExperimentOutput{
		Report:   rep,
		Rendered: rep.Render(format.Markdown),
	}, nil
}

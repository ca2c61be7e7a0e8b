package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// KnownAgents lists every agent identifier the assistant pipelines use.
// The validator resolves each of these plus the defaults record.
var KnownAgents = []string{
	"external_search_agent",
	"summarizer_agent",
	"summary_critic",
	"research_team_lead",
	"local_data_search_agent",
	"local_data_summarizer_agent",
	"hypothesis-refiner",
	"hypothesis-refiner-critic",
	"Data_Discovery_Agent",
	"Discovery_Critic_Agent",
	"hunt_planner",
	"hunt_plan_critic",
	"able_table",
	"hypothesizer_agent",
}

type agentRoster struct {
	Agents []string `yaml:"agents"`
}

// LoadAgentRoster reads an alternate agent list from a YAML file of the form
//
//	agents:
//	  - summarizer_agent
//	  - hunt_planner
//
// for deployments that add or rename pipeline agents.
func LoadAgentRoster(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent roster: %w", err)
	}
	var roster agentRoster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("parse agent roster %s: %w", path, err)
	}
	if len(roster.Agents) == 0 {
		return nil, fmt.Errorf("agent roster %s lists no agents", path)
	}
	return roster.Agents, nil
}

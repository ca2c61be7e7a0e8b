// Package extract pulls final reports out of multi-agent transcripts. Each
// pipeline knows which agent authored the deliverable, which termination
// markers to strip, and what to say when the agent never produced anything.
package extract

import (
	"fmt"
	"strings"
)

// TranscriptMessage is one entry in a workflow transcript.
type TranscriptMessage struct {
	Source  string
	Content string
}

// Transcript is the ordered message log of a completed workflow run.
type Transcript struct {
	Messages []TranscriptMessage
}

type pipelineSpec struct {
	sourceAgent     string
	cleanupMarkers  []string
	defaultMessage  string
	emptyWhenAbsent bool
}

var pipelines = map[string]pipelineSpec{
	"researcher": {
		sourceAgent:    "summarizer_agent",
		defaultMessage: "no report generated",
	},
	"local_data_searcher": {
		sourceAgent:    "local_data_summarizer_agent",
		cleanupMarkers: []string{"YYY-TERMINATE-YYY"},
		defaultMessage: "no local data report generated",
	},
	"refiner": {
		sourceAgent:    "refiner",
		cleanupMarkers: []string{"YYY-HYPOTHESIS-ACCEPTED-YYY"},
		defaultMessage: "something went wrong",
	},
	"data_discovery": {
		sourceAgent:     "Data_Discovery_Agent",
		emptyWhenAbsent: true,
	},
	"hunt_planner": {
		sourceAgent:    "hunt_planner",
		defaultMessage: "no plan was generated",
	},
}

// AgentResult extracts the deliverable for the named pipeline from a
// transcript: the last message authored by the pipeline's source agent,
// with termination markers removed and whitespace trimmed. When the source
// agent never spoke, the pipeline's fallback message is returned.
func AgentResult(t Transcript, pipeline string) (string, error) {
	spec, ok := pipelines[pipeline]
	if !ok {
		return "", fmt.Errorf("unknown agent name: %s", pipeline)
	}

	content := ""
	found := false
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Source == spec.sourceAgent {
			content = t.Messages[i].Content
			found = true
			break
		}
	}
	if !found {
		if spec.emptyWhenAbsent {
			return "", nil
		}
		content = spec.defaultMessage
	}

	for _, marker := range spec.cleanupMarkers {
		content = strings.ReplaceAll(content, marker, "")
	}
	return strings.TrimSpace(content), nil
}

// ResearchReport extracts the research report from a researcher run.
func ResearchReport(t Transcript) (string, error) {
	return AgentResult(t, "researcher")
}

// LocalDataReport extracts the local data report from a local data search run.
func LocalDataReport(t Transcript) (string, error) {
	return AgentResult(t, "local_data_searcher")
}

// RefinedHypothesis extracts the accepted hypothesis from a refiner run.
func RefinedHypothesis(t Transcript) (string, error) {
	return AgentResult(t, "refiner")
}

// DataDiscoveryReport extracts the discovery report from a data discovery run.
func DataDiscoveryReport(t Transcript) (string, error) {
	return AgentResult(t, "data_discovery")
}

// HuntPlan extracts the plan from a hunt planner run.
func HuntPlan(t Transcript) (string, error) {
	return AgentResult(t, "hunt_planner")
}

package main

import (
	"fmt"
	"strings"
)

// Intent is the kind of answer chosen for a message.
type Intent string

const (
	IntentPlan     Intent = "plan"
	IntentRisk     Intent = "risk"
	IntentGreeting Intent = "greeting"
)

// Response is the agent's answer. Which optional lists are set depends on
// the intent.
type Response struct {
	Message          string     `json:"message"`
	Artifacts        []Artifact `json:"artifacts,omitempty"`
	NextActions      []string   `json:"next_actions,omitempty"`
	Capabilities     []string   `json:"capabilities,omitempty"`
	SuggestedActions []string   `json:"suggested_actions,omitempty"`
}

type Artifact struct {
	Type    string      `json:"type"`
	Title   string      `json:"title"`
	Content interface{} `json:"content"`
}

type Phase struct {
	Name     string   `json:"name"`
	Duration string   `json:"duration"`
	Tasks    []string `json:"tasks"`
}

type PlanContent struct {
	Phases        []Phase `json:"phases"`
	TotalDuration string  `json:"total_duration"`
	TeamSize      string  `json:"team_size"`
}

type Risk struct {
	Risk        string `json:"risk"`
	Probability string `json:"probability"`
	Impact      string `json:"impact"`
	Mitigation  string `json:"mitigation"`
}

type RiskContent struct {
	HighRisks   []Risk `json:"high_risks"`
	MediumRisks []Risk `json:"medium_risks"`
}

// classify matches keywords case-insensitively. Planning wins over risk.
func classify(message string) Intent {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "plan"), strings.Contains(m, "schedule"):
		return IntentPlan
	case strings.Contains(m, "risk"):
		return IntentRisk
	default:
		return IntentGreeting
	}
}

func stringField(data map[string]interface{}, key, fallback string) string {
	if s, ok := data[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func respond(projectData map[string]interface{}, message string) (Intent, Response) {
	name := stringField(projectData, "name", "Unknown Project")
	projectType := stringField(projectData, "project_type", "web_application")

	intent := classify(message)
	switch intent {
	case IntentPlan:
		return intent, Response{
			Message: fmt.Sprintf("I'll create a comprehensive project plan for '%s'. Based on the %s type, I recommend the following phases:", name, projectType),
			Artifacts: []Artifact{{
				Type:  "project_plan",
				Title: "Project Plan",
				Content: PlanContent{
					Phases: []Phase{
						{Name: "Requirements Analysis", Duration: "1 week", Tasks: []string{"Gather requirements", "Stakeholder interviews", "Create user stories"}},
						{Name: "Design Phase", Duration: "2 weeks", Tasks: []string{"System architecture", "UI/UX design", "Database design"}},
						{Name: "Development", Duration: "4 weeks", Tasks: []string{"Frontend development", "Backend development", "Integration"}},
						{Name: "Testing & Deployment", Duration: "1 week", Tasks: []string{"Unit testing", "Integration testing", "Deployment setup"}},
					},
					TotalDuration: "8 weeks",
					TeamSize:      "3-5 developers",
				},
			}},
			NextActions: []string{
				"Review and approve the project plan",
				"Assign team members to phases",
				"Set up project tracking tools",
			},
		}
	case IntentRisk:
		return intent, Response{
			Message: fmt.Sprintf("I've identified potential risks for the %s project:", name),
			Artifacts: []Artifact{{
				Type:  "risk_assessment",
				Title: "Risk Assessment",
				Content: RiskContent{
					HighRisks: []Risk{
						{Risk: "Scope creep", Probability: "High", Impact: "High", Mitigation: "Clear requirement documentation and change control process"},
						{Risk: "Technical complexity", Probability: "Medium", Impact: "High", Mitigation: "Proof of concept and technical spikes"},
					},
					MediumRisks: []Risk{
						{Risk: "Resource availability", Probability: "Medium", Impact: "Medium", Mitigation: "Cross-training and backup resources"},
					},
				},
			}},
			NextActions: []string{
				"Implement risk mitigation strategies",
				"Set up regular risk review meetings",
				"Create contingency plans",
			},
		}
	default:
		return intent, Response{
			Message: fmt.Sprintf("Hello! I'm the PM Agent for '%s'. I can help you with project planning, risk assessment, resource allocation, and progress tracking. What would you like to work on?", name),
			Capabilities: []string{
				"Project planning and scheduling",
				"Risk assessment and mitigation",
				"Resource allocation",
				"Progress tracking and reporting",
				"Stakeholder communication",
				"Change management",
			},
			SuggestedActions: []string{
				"Create project plan",
				"Assess project risks",
				"Define team structure",
				"Set up project milestones",
			},
		}
	}
}

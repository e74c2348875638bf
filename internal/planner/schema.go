package planner

import "ai-life-planner/internal/llm"

// planSchema mirrors lifeplan.GeneratedPlan. The service is asked to follow
// it; ParsePlan still checks the reply.
var planSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"dailyRoutine": {
			Type:        llm.TypeArray,
			Description: "A suggested daily schedule broken down by time of day.",
			Items: &llm.Schema{
				Type: llm.TypeObject,
				Properties: map[string]*llm.Schema{
					"timeOfDay": {Type: llm.TypeString, Description: "e.g., Morning (7:00 AM - 9:00 AM)"},
					"activity":  {Type: llm.TypeString, Description: "The specific routine activity"},
					"duration":  {Type: llm.TypeString, Description: "Estimated duration"},
				},
				Required: []string{"timeOfDay", "activity", "duration"},
			},
		},
		"habitsToBuild": {
			Type:        llm.TypeArray,
			Description: "List of 3-5 specific, small habits to start building.",
			Items:       &llm.Schema{Type: llm.TypeString},
		},
		"actionableSteps": {
			Type:        llm.TypeArray,
			Description: "List of 3-5 immediate actionable steps towards the short-term goal.",
			Items:       &llm.Schema{Type: llm.TypeString},
		},
		"motivationalQuote": {
			Type:        llm.TypeString,
			Description: "A customized, inspiring quote relevant to their specific goals and obstacles.",
		},
	},
	Required: []string{"dailyRoutine", "habitsToBuild", "actionableSteps", "motivationalQuote"},
}

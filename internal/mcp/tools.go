package mcp

import "github.com/mark3labs/mcp-go/mcp"

var mealSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"protein_g":   map[string]any{"type": "number", "minimum": 0, "description": "Protein in grams"},
		"carbs_g":     map[string]any{"type": "number", "minimum": 0, "description": "Carbohydrates in grams"},
		"fat_g":       map[string]any{"type": "number", "minimum": 0, "description": "Fat in grams"},
		"meal_type":   map[string]any{"type": "string", "enum": []string{"Breakfast", "Lunch", "Dinner", "Snack"}},
		"hour_of_day": map[string]any{"type": "integer", "minimum": 0, "maximum": 23},
		"day_of_week": map[string]any{"type": []string{"string", "integer"}, "description": "Monday..Sunday, or 0 (Monday) .. 6 (Sunday)"},
	},
	"required": []string{"protein_g", "carbs_g", "fat_g", "meal_type", "hour_of_day", "day_of_week"},
}

var predictToolDef = mcp.NewTool("meal_predict",
	mcp.WithDescription("Predict the kilocalories of the next meal from the last three meals, oldest first."),
	mcp.WithArray("meals",
		mcp.Required(),
		mcp.Description("Exactly three meals in chronological order"),
		mcp.Items(mealSchema),
	),
)

var encodeToolDef = mcp.NewTool("meal_encode",
	mcp.WithDescription("Show the 3x9 feature matrix three meals encode to, without running the model."),
	mcp.WithArray("meals",
		mcp.Required(),
		mcp.Description("Exactly three meals in chronological order"),
		mcp.Items(mealSchema),
	),
)

var statusToolDef = mcp.NewTool("model_status",
	mcp.WithDescription("Report whether the calorie model and scaler are loaded."),
)

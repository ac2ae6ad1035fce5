package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/nextmeal/internal/errors"
	"github.com/hpungsan/nextmeal/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	svc    ops.Predictor
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc ops.Predictor, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{svc: svc, logger: logger}
}

// MealsRequest represents the arguments for meal_predict and meal_encode.
type MealsRequest struct {
	Meals []ops.MealInput `json:"meals"`
}

// HandlePredict handles the meal_predict tool call.
func (h *Handlers) HandlePredict(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MealsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Predict(ctx, h.svc, ops.PredictInput{Meals: input.Meals})
	if err != nil {
		h.logger.Debug("meal_predict failed", zap.Error(err))
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleEncode handles the meal_encode tool call.
func (h *Handlers) HandleEncode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MealsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Encode(ops.EncodeInput{Meals: input.Meals})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStatus handles the model_status tool call.
func (h *Handlers) HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.Status(h.svc))
}

// errorResult creates an MCP error result. Wrapper context added with
// fmt.Errorf is kept in the message.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var nErr *errors.NextMealError
	if stderrors.As(err, &nErr) {
		msg := nErr.Message
		if prefix := strings.TrimSuffix(err.Error(), nErr.Error()); prefix != err.Error() {
			msg = prefix + msg
		}
		errorObj := map[string]any{
			"code":    nErr.Code,
			"message": msg,
			"status":  nErr.Status,
		}
		// INTERNAL details may carry paths or raw causes
		if nErr.Code != errors.ErrInternal && len(nErr.Details) > 0 {
			errorObj["details"] = nErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

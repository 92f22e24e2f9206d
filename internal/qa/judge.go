package qa

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// callTimeout bounds every chat completion round trip.
const callTimeout = 2 * time.Minute

// noTemperatureModels marks model families that reject a sampling
// temperature outright. Anything the list misses is caught by the
// unsupported-parameter retry below.
var noTemperatureModels = []string{"o1", "o3", "o4", "gpt-5"}

// Caller sends judge prompts to an OpenAI-compatible chat completions API.
type Caller struct {
	client *openai.Client
}

func NewCaller(apiKey, baseURL string) *Caller {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Caller{client: openai.NewClientWithConfig(cfg)}
}

// Judge asks model to grade one answer and returns the validated verdict.
// The rubric is the judge's system prompt; prompt is the instruction built
// by BuildPrompt.
func (c *Caller) Judge(ctx context.Context, rubric, prompt, model string) (JudgeVerdict, error) {
	content, err := c.complete(ctx, rubric, prompt, model)
	if err != nil {
		return JudgeVerdict{}, err
	}
	return ParseJudgeVerdict(content), nil
}

func (c *Caller) complete(ctx context.Context, rubric, prompt, model string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	withTemp := supportsTemperature(model)
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(rubric, prompt, model, withTemp))
	if err != nil && withTemp && isUnsupportedTemperature(err) {
		// One retry without the parameter; any further failure is terminal.
		resp, err = c.client.CreateChatCompletion(ctx, c.buildRequest(rubric, prompt, model, false))
	}
	if err != nil {
		return "", classifyError(err, model)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("model %s returned no content", model)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Caller) buildRequest(rubric, prompt, model string, withTemperature bool) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: rubric},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if withTemperature {
		// A literal 0 is dropped by the client's omitempty; the smallest
		// nonzero float marshals and the API treats it as 0.
		req.Temperature = math.SmallestNonzeroFloat32
	}
	return req
}

func supportsTemperature(model string) bool {
	for _, prefix := range noTemperatureModels {
		if strings.Contains(model, prefix) {
			return false
		}
	}
	return true
}

// isUnsupportedTemperature reports whether the provider rejected the
// request because this model does not take a temperature. Matched on the
// structured error first, message text as a fallback.
func isUnsupportedTemperature(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if code, ok := apiErr.Code.(string); ok && code == "unsupported_value" &&
		apiErr.Param != nil && *apiErr.Param == "temperature" {
		return true
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "temperature") && strings.Contains(msg, "does not support")
}

func classifyError(err error, model string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("model %s did not respond within %s", model, callTimeout)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == "model_not_found" {
			return fmt.Errorf("model %s is unknown or unavailable: %s", model, apiErr.Message)
		}
		return fmt.Errorf("chat completion failed (%d): %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	return fmt.Errorf("chat completion: %w", err)
}

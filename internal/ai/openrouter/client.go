package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/ai-hr/internal/ai"
	"github.com/spigell/ai-hr/internal/utils"
)

const (
	DefaultBaseURL      = "https://openrouter.ai/api/v1"
	defaultModel        = "deepseek/deepseek-chat-v3.1:free"
	defaultMaxLogLength = 200
	completionsPath     = "/chat/completions"
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey     string
	model      string
	maxLogLen  int
	logger     *zap.Logger
	BaseURL    string
	HTTPClient *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	Tools       []chatTool    `json:"tools,omitempty"`
	ToolChoice  *toolChoice   `json:"tool_choice,omitempty"`
}

type chatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type toolChoice struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

type toolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// New creates a client for the given model. An empty baseURL selects OpenRouter.
func New(apiKey, baseURL, model string, logger *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openrouter api key is required")
	}

	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:    apiKey,
		model:     model,
		maxLogLen: defaultMaxLogLength,
		logger:    logger,
		BaseURL:   baseURL,
		HTTPClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// SetMaxLogLength changes how much of prompts and responses is logged at debug level.
func (c *Client) SetMaxLogLength(n int) {
	if n > 0 {
		c.maxLogLen = n
	}
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Complete performs exactly one HTTP round-trip.
func (c *Client) Complete(ctx context.Context, req *ai.Request) (*ai.Response, error) {
	if req == nil || strings.TrimSpace(req.User) == "" {
		return nil, errors.New("user message must not be empty")
	}

	body := chatRequest{
		Model:       c.model,
		Temperature: req.Temperature,
	}
	if system := strings.TrimSpace(req.System); system != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: system})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.User})

	if req.Tool != nil {
		body.Tools = []chatTool{{
			Type: "function",
			Function: toolFunction{
				Name:        req.Tool.Name,
				Description: req.Tool.Description,
				Parameters:  req.Tool.Parameters.JSONSchema(),
			},
		}}
		choice := &toolChoice{Type: "function"}
		choice.Function.Name = req.Tool.Name
		body.ToolChoice = choice
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+completionsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("openrouter chat completion request",
		zap.String("user_preview", utils.TruncateForLog(req.User, c.maxLogLen)),
		zap.Bool("forced_tool", req.Tool != nil),
	)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat completion: bad status %s: %s", resp.Status, utils.TruncateForLog(string(data), c.maxLogLen))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("chat completion: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	message := parsed.Choices[0].Message

	if req.Tool != nil {
		for _, call := range message.ToolCalls {
			if call.Function.Name != req.Tool.Name {
				continue
			}
			args := make(map[string]any)
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("decode tool arguments: %w", err)
			}
			c.logger.Debug("openrouter tool call response",
				zap.String("tool", call.Function.Name),
				zap.String("arguments_preview", utils.TruncateForLog(call.Function.Arguments, c.maxLogLen)),
			)
			return &ai.Response{ToolName: call.Function.Name, Arguments: args}, nil
		}
		return nil, fmt.Errorf("%w: %s", ai.ErrNoToolCall, req.Tool.Name)
	}

	text := strings.TrimSpace(message.Content)
	if text == "" {
		return nil, errors.New("chat completion returned empty content")
	}

	return &ai.Response{Text: text}, nil
}

package adapter

// Request is a single prompt for a backend.
type Request struct {
	Model       string
	Prompt      string
	System      string
	Temperature *float64
	MaxTokens   int
}

// Usage captures normalized token usage.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response wraps a backend completion and optional usage data.
type Response struct {
	Text    string
	Adapter string
	Model   string
	Usage   *Usage
}

func maxTokens(req Request) int {
	if req.MaxTokens <= 0 {
		return 4096
	}
	return req.MaxTokens
}

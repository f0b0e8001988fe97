// Package coordinator resolves a free-text recruiting request to a concrete
// repository identifier using an LLM extraction call.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethanbaker/recruiter/pkg/utils"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const extractionRules = `Extract the GitHub repository name from the user's request.
Rules:
- Return ONLY the repository path in "owner/repo" format, no other text
- Handle various input formats:
  * Explicit paths: "owner/repo"
  * Organization mentions: "openai repository" -> "openai/openai"
  * Repository mentions: "openai's gpt-3 repo" -> "openai/gpt-3"
  * URLs: "https://github.com/owner/repo" -> "owner/repo"
- If only an organization is mentioned without a specific repo, use the
  organization name as both owner and repo
- If a URL is provided, extract only the owner/repo part`

var repoPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// Agent extracts repository identifiers from task descriptions. It
// implements workflow.RepositoryResolver.
type Agent struct {
	client openai.Client
	model  string
}

// NewAgent creates a coordinator agent from configuration. Requires
// OPENAI_API_KEY; MODEL defaults to gpt-4o-mini.
func NewAgent(cfg *utils.Config) (*Agent, error) {
	apiKey := cfg.Get("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY not set in environment")
	}

	return &Agent{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  cfg.GetWithDefault("MODEL", "gpt-4o-mini"),
	}, nil
}

// Resolve extracts an owner/repo identifier from the task description. A
// response that does not match the owner/repo shape is a stage-level
// failure; the session aborts to terminal rather than guessing.
func (a *Agent) Resolve(ctx context.Context, task string) (string, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(extractionRules),
			openai.UserMessage(task),
		},
	})
	if err != nil {
		return "", fmt.Errorf("repository extraction failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("repository extraction returned no choices")
	}

	repo := strings.TrimSpace(resp.Choices[0].Message.Content)
	repo = strings.Trim(repo, "`\"'")

	if !repoPattern.MatchString(repo) {
		return "", fmt.Errorf("invalid repository format %q, expected owner/repo", repo)
	}

	return repo, nil
}

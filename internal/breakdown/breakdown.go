// Package breakdown asks a chat model to split a task into subtasks.
package breakdown

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"taskmirror/internal/config"
	"taskmirror/internal/service"
)

// MaxSubtasks caps how many subtasks are kept from a reply.
const MaxSubtasks = 10

// ErrNoSubtasks is returned when the model's reply contains no usable subtasks.
var ErrNoSubtasks = errors.New("breakdown: no subtasks in reply")

// Breakdowner produces subtask titles for a task.
type Breakdowner interface {
	Breakdown(ctx context.Context, task service.Task) ([]string, error)
}

// Generator implements Breakdowner with an eino chat model.
type Generator struct {
	model model.BaseChatModel
}

// New creates a Generator over any eino chat model.
func New(m model.BaseChatModel) *Generator {
	return &Generator{model: m}
}

// NewOpenAI creates a Generator backed by an OpenAI-compatible chat model.
func NewOpenAI(ctx context.Context, cfg config.BreakdownSettings) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("breakdown: no API key (set OPENAI_API_KEY or breakdown.api_key)")
	}

	modelConfig := &einoopenai.ChatModelConfig{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
	}
	if cfg.BaseURL != "" {
		modelConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		modelConfig.Timeout = cfg.Timeout
	} else {
		modelConfig.Timeout = 60 * time.Second
	}

	m, err := einoopenai.NewChatModel(ctx, modelConfig)
	if err != nil {
		return nil, fmt.Errorf("breakdown: create model: %w", err)
	}
	return New(m), nil
}

// Breakdown returns up to MaxSubtasks subtask titles for task.
func (g *Generator) Breakdown(ctx context.Context, task service.Task) ([]string, error) {
	msgs := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: buildPrompt(task)},
	}

	reply, err := g.model.Generate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("breakdown: generate: %w", err)
	}

	subtasks := ParseSubtasks(reply.Content)
	if len(subtasks) == 0 {
		return nil, ErrNoSubtasks
	}
	return subtasks, nil
}

const systemPrompt = "You split tasks into short, concrete, actionable subtasks. " +
	"Reply with a JSON array of strings and nothing else."

func buildPrompt(task service.Task) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task: %s\n", task.Title)
	if task.Description != "" {
		fmt.Fprintf(&sb, "Details: %s\n", task.Description)
	}
	if task.DueDate != nil {
		fmt.Fprintf(&sb, "Due: %s\n", task.DueDate.Format("2006-01-02"))
	}
	fmt.Fprintf(&sb, "\nList between 3 and %d subtasks.", MaxSubtasks)
	return sb.String()
}

// listMarkerRe matches "- ", "* ", "• ", "1. ", "2) " at the start of a line.
var listMarkerRe = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)

// ParseSubtasks extracts subtask titles from a model reply.
// A JSON array of strings is preferred; otherwise list items are taken, or
// every non-empty line if the reply has no list markers.
func ParseSubtasks(content string) []string {
	content = stripFences(strings.TrimSpace(content))

	var items []string
	if strings.HasPrefix(content, "[") && json.Unmarshal([]byte(content), &items) == nil {
		return clean(items)
	}

	var marked, plain []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if loc := listMarkerRe.FindStringIndex(line); loc != nil {
			marked = append(marked, line[loc[1]:])
		} else {
			plain = append(plain, line)
		}
	}
	if len(marked) > 0 {
		return clean(marked)
	}
	return clean(plain)
}

func stripFences(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	var lines []string
	inBlock := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inBlock = !inBlock
			continue
		}
		if inBlock {
			lines = append(lines, line)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// clean trims, drops empties and case-insensitive duplicates, and caps the count.
func clean(items []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(strings.Trim(strings.TrimSpace(item), `"`))
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
		if len(out) == MaxSubtasks {
			break
		}
	}
	return out
}

// Package llm provides a modelapi.Model backed by a chat-completion API,
// letting a job spec target a prompt-driven model the same way it targets
// any other RunModel node: its "prompt" parameter is followed by the one
// required input table rendered as CSV, and the response is parsed back
// into a single output table.
package llm

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/modelapi"
	"github.com/coreflow/coreflow/storage"
)

// Config configures one LLM-backed model instance.
type Config struct {
	EntryPoint   string
	SystemPrompt string
	Model        string // chat-completion model name, e.g. "gpt-4o-mini"
	InputSchema  graph.TableSchema
	OutputSchema graph.TableSchema
}

// Client is the narrow surface Model needs from an OpenAI-compatible
// client, letting tests substitute a fake.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Model renders its "prompt" parameter and "rows" input table into a chat
// completion request and parses the response as CSV into a "rows" output.
type Model struct {
	cfg    Config
	client Client
}

var _ modelapi.Model = (*Model)(nil)

// New builds an LLM-backed model around an existing client.
func New(cfg Config, client Client) *Model {
	return &Model{cfg: cfg, client: client}
}

// Register installs a constructor for cfg.EntryPoint in the global
// modelapi registry (modelapi.Register), the registration pattern every
// LocalLoader-resolvable model uses.
func Register(cfg Config, newClient func() Client) {
	modelapi.Register(cfg.EntryPoint, func() modelapi.Model {
		return New(cfg, newClient())
	})
}

func (m *Model) Define() graph.ModelDef {
	return graph.ModelDef{
		EntryPoint: m.cfg.EntryPoint,
		Parameters: map[string]graph.ParamDef{
			"prompt": {Type: "string"},
		},
		Inputs: map[string]graph.IODef{
			"rows": {Schema: m.cfg.InputSchema},
		},
		Outputs: map[string]graph.IODef{
			"rows": {Schema: m.cfg.OutputSchema},
		},
	}
}

func (m *Model) RunModel(ctx context.Context, rc modelapi.RunContext) error {
	promptVal, err := rc.GetParameter("prompt")
	if err != nil {
		return err
	}
	prompt, _ := promptVal.(string)

	table, err := rc.GetTable("rows")
	if err != nil {
		return err
	}

	userContent := prompt + "\n\n" + renderCSV(table)

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: m.cfg.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userContent},
		},
	})
	if err != nil {
		return &modelapi.ExecutionError{EntryPoint: m.cfg.EntryPoint, Cause: err}
	}
	if len(resp.Choices) == 0 {
		return &modelapi.ExecutionError{EntryPoint: m.cfg.EntryPoint, Cause: fmt.Errorf("empty completion")}
	}

	out, err := parseCSV(m.cfg.OutputSchema, resp.Choices[0].Message.Content)
	if err != nil {
		return &modelapi.ExecutionError{EntryPoint: m.cfg.EntryPoint, Cause: err}
	}
	return rc.PutTable("rows", out)
}

func renderCSV(table storage.Table) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	header := make([]string, len(table.Schema.Fields))
	for i, f := range table.Schema.Fields {
		header[i] = f.Name
	}
	_ = w.Write(header)
	for _, row := range table.Rows {
		rec := make([]string, len(header))
		for i, name := range header {
			rec[i] = fmt.Sprintf("%v", row[name])
		}
		_ = w.Write(rec)
	}
	w.Flush()
	return sb.String()
}

func parseCSV(schema graph.TableSchema, text string) (storage.Table, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimSpace(text)))
	header, err := r.Read()
	if err != nil {
		return storage.Table{}, fmt.Errorf("llm: model response is not valid CSV: %w", err)
	}
	records, err := r.ReadAll()
	if err != nil {
		return storage.Table{}, fmt.Errorf("llm: model response is not valid CSV: %w", err)
	}

	rows := make([]storage.Row, 0, len(records))
	for _, rec := range records {
		row := make(storage.Row, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return storage.Table{Schema: schema, Rows: rows}, nil
}

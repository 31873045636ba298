package functions

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"ollachat/ollachat/utils/logging"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var builtinCatalogue []byte

type Property struct {
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description" json:"description"`
}

type Parameters struct {
	Type       string              `yaml:"type" json:"type"`
	Properties map[string]Property `yaml:"properties" json:"properties"`
	Required   []string            `yaml:"required" json:"required"`
}

type Schema struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description" json:"description"`
	Parameters  Parameters `yaml:"parameters" json:"parameters"`
}

type Call struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Handler func(ctx context.Context, args map[string]any) (any, error)

// Registry maps function names to their schema and handler.
type Registry struct {
	mu       sync.RWMutex
	schemas  map[string]Schema
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{
		schemas:  map[string]Schema{},
		handlers: map[string]Handler{},
	}
}

// LoadCatalogue parses a YAML list of schemas. An empty path selects the
// built-in catalogue.
func LoadCatalogue(path string) ([]Schema, error) {
	data := builtinCatalogue
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read function catalogue: %w", err)
		}
		data = b
	}
	var schemas []Schema
	if err := yaml.Unmarshal(data, &schemas); err != nil {
		return nil, fmt.Errorf("parse function catalogue: %w", err)
	}
	return schemas, nil
}

func (r *Registry) Register(schema Schema, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[schema.Name] = schema
	r.handlers[schema.Name] = h
}

// Schemas returns the registered schemas sorted by name.
func (r *Registry) Schemas() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Schema, 0, len(r.schemas))
	for _, s := range r.schemas {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// Execute runs a call. Failures are reported in the Result, never as a Go error.
func (r *Registry) Execute(ctx context.Context, call Call) Result {
	r.mu.RLock()
	h, ok := r.handlers[call.Name]
	schema := r.schemas[call.Name]
	r.mu.RUnlock()
	if !ok {
		return Result{Success: false, Error: fmt.Sprintf("Function %s not found", call.Name)}
	}
	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	for _, req := range schema.Parameters.Required {
		if v, ok := args[req]; !ok || v == nil || v == "" {
			return Result{Success: false, Error: fmt.Sprintf("Missing required argument: %s", req)}
		}
	}

	data, err := h(ctx, args)
	if err != nil {
		logging.AppLogger.Warn("function call failed", zap.String("function", call.Name), zap.Error(err))
		return Result{Success: false, Error: err.Error()}
	}
	logging.AppLogger.Info("function executed", zap.String("function", call.Name))
	return Result{Success: true, Data: data}
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

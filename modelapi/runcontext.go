package modelapi

import (
	"fmt"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/storage"
)

// LocalRunContext is the concrete RunContext a RunModel node function
// constructs around its resolved parameters and input views before calling
// into model code, and collects the outputs the model writes.
type LocalRunContext struct {
	def    graph.ModelDef
	params map[string]any
	inputs map[string]storage.Table
	logger Logger

	outputs map[string]storage.Table
}

var _ RunContext = (*LocalRunContext)(nil)

// NewLocalRunContext builds a run context scoped to one model invocation.
func NewLocalRunContext(def graph.ModelDef, params map[string]any, inputs map[string]storage.Table, logger Logger) *LocalRunContext {
	return &LocalRunContext{
		def:     def,
		params:  params,
		inputs:  inputs,
		logger:  logger,
		outputs: make(map[string]storage.Table),
	}
}

func (c *LocalRunContext) GetParameter(name string) (any, error) {
	decl, ok := c.def.Parameters[name]
	if !ok {
		return nil, fmt.Errorf("modelapi: unknown parameter %q", name)
	}
	v, ok := c.params[name]
	if !ok {
		if decl.Optional {
			return nil, nil
		}
		return nil, fmt.Errorf("modelapi: missing required parameter %q", name)
	}
	return v, nil
}

func (c *LocalRunContext) GetSchema(name string) (graph.TableSchema, error) {
	decl, ok := c.def.Inputs[name]
	if !ok {
		return graph.TableSchema{}, fmt.Errorf("modelapi: unknown input %q", name)
	}
	return decl.Schema, nil
}

func (c *LocalRunContext) GetTable(name string) (storage.Table, error) {
	if _, ok := c.def.Inputs[name]; !ok {
		return storage.Table{}, fmt.Errorf("modelapi: unknown input %q", name)
	}
	tbl, ok := c.inputs[name]
	if !ok {
		decl := c.def.Inputs[name]
		if decl.Optional {
			return storage.Table{Schema: decl.Schema}, nil
		}
		return storage.Table{}, fmt.Errorf("modelapi: missing required input %q", name)
	}
	return tbl, nil
}

func (c *LocalRunContext) PutTable(name string, table storage.Table) error {
	decl, ok := c.def.Outputs[name]
	if !ok && !anyDynamicOutput(c.def) {
		return fmt.Errorf("modelapi: unknown output %q", name)
	}
	if _, dup := c.outputs[name]; dup {
		return fmt.Errorf("modelapi: duplicate output %q", name)
	}
	if ok && len(decl.Schema.Fields) > 0 && !table.Schema.Equal(decl.Schema) {
		return fmt.Errorf("modelapi: output %q does not conform to declared schema", name)
	}
	c.outputs[name] = table
	return nil
}

func (c *LocalRunContext) Log() Logger { return c.logger }

// Outputs returns every table the model wrote, for the caller to persist.
func (c *LocalRunContext) Outputs() map[string]storage.Table {
	return c.outputs
}

func anyDynamicOutput(def graph.ModelDef) bool {
	for _, o := range def.Outputs {
		if o.Dynamic {
			return true
		}
	}
	return false
}

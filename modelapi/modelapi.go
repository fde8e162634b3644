// Package modelapi defines the model loader interface the core consumes
// and the run-time context a model implementation executes against. Model
// code itself is external; this package only describes the contract and
// provides a registry-backed loader plus one concrete model kind.
package modelapi

import (
	"context"
	"fmt"
	"sync"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/storage"
)

// RunContext is what core calls into user model code with. Every accessor
// validates its argument synchronously: unknown names, wrong dataset
// types, and duplicate outputs are rejected before a value ever reaches
// storage.
type RunContext interface {
	GetParameter(name string) (any, error)
	GetSchema(name string) (graph.TableSchema, error)
	GetTable(name string) (storage.Table, error)
	PutTable(name string, table storage.Table) error
	Log() Logger
}

// Logger is the narrow logging surface exposed to model code.
type Logger interface {
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

// Model is the interface every runnable model implements. RunModel is
// called once per RunModel node; it may read every declared input/param
// through ctx and must write every required output before returning.
type Model interface {
	Define() graph.ModelDef
	RunModel(ctx context.Context, rc RunContext) error
}

// Class is a resolved, loadable model: a constructor bound to its declared
// entry point.
type Class struct {
	EntryPoint string
	New        func() Model
}

// Loader is the model loader interface the core consumes: per-job scope
// management, class resolution and definition scanning.
type Loader interface {
	CreateScope(scope string) error
	DestroyScope(scope string) error
	LoadModelClass(scope string, modelDef graph.ModelDef) (Class, error)
	ScanModel(scope, entryPoint string, cls Class) (graph.ModelDef, error)
	CheckoutDirectory(scope string, modelDef graph.ModelDef) string
}

// LoadError reports that a model class could not be resolved: checkout
// failed, the class was not found, or the class did not satisfy Model. A
// RunModel class is loaded while the graph is resolved, so a LoadError there
// fails the job before any node is scheduled; an ImportModel node loads its
// class when it runs, so there the error fails that node.
type LoadError struct {
	Scope      string
	EntryPoint string
	Reason     string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("modelapi: load %s in scope %s: %s", e.EntryPoint, e.Scope, e.Reason)
}

// ExecutionError wraps a panic or error raised by user model code,
// preserving the entry point for diagnosis. It fails only the owning
// RunModel node.
type ExecutionError struct {
	EntryPoint string
	Cause      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("modelapi: model %s failed: %v", e.EntryPoint, e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// LocalLoader resolves model classes from an in-process registry keyed by
// entry point, the idiomatic substitute for dynamically loading arbitrary
// external code: models register themselves by calling Register at init
// time, the way database/sql drivers register themselves.
type LocalLoader struct {
	mu       sync.Mutex
	scopes   map[string]bool
	registry map[string]func() Model
}

var _ Loader = (*LocalLoader)(nil)

// NewLocalLoader creates a loader backed by the global registry populated
// via Register.
func NewLocalLoader() *LocalLoader {
	return &LocalLoader{
		scopes:   make(map[string]bool),
		registry: globalRegistry,
	}
}

var globalRegistry = make(map[string]func() Model)

// Register adds a model constructor under entryPoint so LocalLoader can
// resolve it. Call from an init() in the package defining the model.
func Register(entryPoint string, ctor func() Model) {
	globalRegistry[entryPoint] = ctor
}

func (l *LocalLoader) CreateScope(scope string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scopes[scope] = true
	return nil
}

func (l *LocalLoader) DestroyScope(scope string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.scopes, scope)
	return nil
}

func (l *LocalLoader) LoadModelClass(scope string, modelDef graph.ModelDef) (Class, error) {
	ctor, ok := l.registry[modelDef.EntryPoint]
	if !ok {
		return Class{}, &LoadError{Scope: scope, EntryPoint: modelDef.EntryPoint, Reason: "entry point not registered"}
	}
	return Class{EntryPoint: modelDef.EntryPoint, New: ctor}, nil
}

func (l *LocalLoader) ScanModel(scope, entryPoint string, cls Class) (graph.ModelDef, error) {
	m := cls.New()
	def := m.Define()
	def.EntryPoint = entryPoint
	return def, nil
}

func (l *LocalLoader) CheckoutDirectory(scope string, modelDef graph.ModelDef) string {
	return fmt.Sprintf("/scratch/%s/%s", scope, modelDef.EntryPoint)
}

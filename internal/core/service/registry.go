package service

import (
	"fmt"
	"sort"
	"sync"

	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	"github.com/olusolaa/cloud-lifecycle/internal/errors"
)

type ComponentRegistry struct {
	mu        sync.RWMutex
	providers map[string]ports.Provider
	workflows map[string]Workflow
}

func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		providers: make(map[string]ports.Provider),
		workflows: make(map[string]Workflow),
	}
}

// NewDefaultRegistry returns a registry with every built-in workflow.
func NewDefaultRegistry() *ComponentRegistry {
	r := NewComponentRegistry()
	for _, wf := range []Workflow{VolumeWorkflow{}, SnapshotWorkflow{}, ImageWorkflow{}, InstanceWorkflow{}} {
		_ = r.RegisterWorkflow(wf)
	}
	return r
}

func (r *ComponentRegistry) RegisterProvider(provider ports.Provider) error {
	if provider == nil {
		return errors.New(errors.CodeInternal, "attempted to register nil provider")
	}
	providerType := provider.Type()
	if providerType == "" {
		return errors.New(errors.CodeInternal, "provider type cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[providerType]; exists {
		return errors.New(errors.CodeInternal, fmt.Sprintf("provider type '%s' already registered", providerType))
	}
	r.providers[providerType] = provider
	return nil
}

func (r *ComponentRegistry) GetProvider(providerType string) (ports.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[providerType]
	if !exists {
		return nil, errors.New(errors.CodeConfigValidation, fmt.Sprintf("provider type '%s' not found", providerType))
	}
	return provider, nil
}

func (r *ComponentRegistry) RegisterWorkflow(wf Workflow) error {
	if wf == nil {
		return errors.New(errors.CodeInternal, "attempted to register nil workflow")
	}
	wfType := wf.Type()
	if wfType == "" {
		return errors.New(errors.CodeInternal, "workflow type cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workflows[wfType]; exists {
		return errors.New(errors.CodeInternal, fmt.Sprintf("workflow type '%s' already registered", wfType))
	}
	r.workflows[wfType] = wf
	return nil
}

func (r *ComponentRegistry) GetWorkflow(wfType string) (Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wf, exists := r.workflows[wfType]
	if !exists {
		return nil, errors.New(errors.CodeNotImplemented, fmt.Sprintf("workflow type '%s' not implemented", wfType))
	}
	return wf, nil
}

func (r *ComponentRegistry) WorkflowTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.workflows))
	for t := range r.workflows {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"codecraft-agent/internal/integrations/paramstore"
)

// DefaultModel is the model id documented for the <prefix>/config/model parameter.
const DefaultModel = "llama-3.3-70b-versatile"

type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ModelSource yields the model id used for completion calls.
type ModelSource interface {
	Model(ctx context.Context) (string, error)
}

// RemoteConfig loads runtime settings from Parameter Store on first use.
// A failed load is not cached, so the next request retries it.
type RemoteConfig struct {
	params      ParamGetter
	paramPrefix string

	cacheMu     sync.RWMutex
	cacheLoaded bool
	model       string
}

func NewRemoteConfig(p ParamGetter, paramPrefix string) (*RemoteConfig, error) {
	if p == nil {
		return nil, errors.New("usecase: param getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("usecase: parameter prefix must not be empty")
	}
	return &RemoteConfig{params: p, paramPrefix: paramPrefix}, nil
}

func (c *RemoteConfig) Model(ctx context.Context) (string, error) {
	c.cacheMu.RLock()
	if c.cacheLoaded {
		model := c.model
		c.cacheMu.RUnlock()
		return model, nil
	}
	c.cacheMu.RUnlock()

	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	if c.cacheLoaded {
		return c.model, nil
	}

	model, err := c.params.GetParameter(ctx, paramstore.Join(c.paramPrefix, "config/model"))
	if err != nil {
		return "", fmt.Errorf("usecase: load model: %w", err)
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return "", errors.New("usecase: load model: parameter is empty")
	}

	c.model = model
	c.cacheLoaded = true
	return model, nil
}

// StaticModel is a ModelSource with a fixed model id.
type StaticModel string

func (m StaticModel) Model(context.Context) (string, error) {
	if strings.TrimSpace(string(m)) == "" {
		return "", errors.New("usecase: static model is empty")
	}
	return string(m), nil
}

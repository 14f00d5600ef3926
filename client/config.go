package client

import (
	"time"

	"github.com/brodyxchen/vmci/backend"
	"github.com/brodyxchen/vmci/constant"
)

type Config struct {
	// ContextID is the peer context id; zero means the hypervisor host.
	ContextID uint32
	// MaxRequestSize caps the request text; longer text is truncated.
	MaxRequestSize int
	// Timeout bounds one call. Zero blocks until the peer answers.
	Timeout time.Duration
	// Registry resolves backend names; nil means backend.Default().
	Registry *backend.Registry
}

func (cfg *Config) GetContextID() uint32 {
	if cfg.ContextID > 0 {
		return cfg.ContextID
	}
	return constant.HostContextID
}

func (cfg *Config) GetMaxRequestSize() int {
	if cfg.MaxRequestSize > 0 {
		return cfg.MaxRequestSize
	}
	return constant.MaxRequestSize
}

func (cfg *Config) GetTimeout() time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	return constant.ClientTimeout
}

func (cfg *Config) GetRegistry() *backend.Registry {
	if cfg.Registry != nil {
		return cfg.Registry
	}
	return backend.Default()
}

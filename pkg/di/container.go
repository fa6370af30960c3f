// Package di provides dependency injection container
package di

import (
	"io"

	"github.com/ssargent/pngme/pkg/api" //nolint:depguard
	"github.com/ssargent/pngme/pkg/storage"
)

// Vault is a chunk store that must be closed after use
type Vault interface {
	storage.ChunkStore
	io.Closer
}

// VaultOpener opens the chunk vault described by config
type VaultOpener func(config storage.Config) (Vault, error)

// Container holds all the dependencies for the application
type Container struct {
	serverFactory api.ServerFactory
	vaultOpener   VaultOpener
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		serverFactory: api.NewServerFactory(),
		vaultOpener:   openPebbleVault,
	}
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// OpenVault opens the chunk vault with the configured opener
func (c *Container) OpenVault(config storage.Config) (Vault, error) {
	return c.vaultOpener(config)
}

// SetVaultOpener allows overriding how the vault is opened (for testing)
func (c *Container) SetVaultOpener(opener VaultOpener) {
	c.vaultOpener = opener
}

func openPebbleVault(config storage.Config) (Vault, error) {
	s, err := storage.NewDefaultStorage(config)
	if err != nil {
		return nil, err
	}
	return s, nil
}

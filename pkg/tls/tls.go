// Package tls wires optional SPIRE-issued mTLS for the HTTP server.
// SPIRE rotates certificates through the Workload API, so the returned
// config stays valid for the process lifetime.
package tls

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/workloadapi"
	"go.uber.org/zap"
)

type Config struct {
	Enabled    bool   `envconfig:"TLS_ENABLED" default:"false"`
	SocketPath string `envconfig:"SPIRE_SOCKET_PATH" default:"unix:///run/spire/sockets/agent.sock"`
}

// Provider holds the live X509 source behind the server's TLS config.
type Provider struct {
	source *workloadapi.X509Source
	config *tls.Config
}

// NewProvider connects to the SPIRE agent and builds an mTLS server
// config. Returns (nil, nil) when TLS is disabled.
func NewProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*Provider, error) {
	if !cfg.Enabled {
		logger.Info("TLS is disabled")
		return nil, nil
	}

	source, err := workloadapi.NewX509Source(
		ctx,
		workloadapi.WithClientOptions(
			workloadapi.WithAddr(cfg.SocketPath),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create X509 source: %w", err)
	}

	tlsConfig := tlsconfig.MTLSServerConfig(source, source, tlsconfig.AuthorizeAny())
	tlsConfig.MinVersion = tls.VersionTLS12

	logger.Info("SPIRE mTLS configured",
		zap.String("socket_path", cfg.SocketPath))

	return &Provider{
		source: source,
		config: tlsConfig,
	}, nil
}

func (p *Provider) ServerConfig() *tls.Config {
	if p == nil {
		return nil
	}
	return p.config
}

func (p *Provider) Close() {
	if p != nil && p.source != nil {
		p.source.Close()
	}
}

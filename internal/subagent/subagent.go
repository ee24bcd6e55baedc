// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package subagent

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-logr/logr"
	"github.com/posteo/go-agentx"
)

// Config describes how to reach the master agent.
type Config struct {
	// Network and Address of the master agent's AgentX socket, e.g.
	// "unix" and "/var/agentx/master", or "tcp" and "localhost:705".
	Network string
	Address string
	// Timeout for requests to the master agent.
	Timeout time.Duration
	// ReconnectInterval between attempts after the session drops.
	ReconnectInterval time.Duration
	// Priority of the registration; lower values win.
	Priority byte
	// MaxConnectTime bounds the initial connection retries. Zero retries
	// until the context is cancelled.
	MaxConnectTime time.Duration
	// Description is sent to the master agent when the session opens.
	// Defaults to DefaultDescription.
	Description string
}

// DefaultDescription names the session when Config.Description is empty.
const DefaultDescription = "lmTempSensorsTable"

type dialFunc func(network, address string) (*agentx.Client, error)

// Subagent registers a TableHandler with the master agent and keeps the
// registration until its context is cancelled.
type Subagent struct {
	logger  logr.Logger
	config  Config
	handler *TableHandler
	dial    dialFunc
}

// New creates a subagent serving handler.
func New(logger logr.Logger, config Config, handler *TableHandler) (*Subagent, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if config.Network == "" || config.Address == "" {
		return nil, fmt.Errorf("master agent network and address are required")
	}
	if config.Description == "" {
		config.Description = DefaultDescription
	}
	return &Subagent{
		logger:  logger.WithName("subagent"),
		config:  config,
		handler: handler,
		dial:    agentx.Dial,
	}, nil
}

// Start connects to the master agent, registers the table and blocks until
// ctx is done. The registration is removed and the held snapshot dropped
// before Start returns. Cancelling ctx while still connecting is not an
// error.
func (s *Subagent) Start(ctx context.Context) error {
	client, err := s.connect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			s.logger.Info("stopped before connecting to master agent")
			return nil
		}
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.logger.Error(err, "failed to close master agent connection")
		}
	}()

	tableOID := s.handler.TableOID()
	session, err := client.Session()
	if err != nil {
		return fmt.Errorf("failed to open agentx session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			s.logger.Error(err, "failed to close agentx session")
		}
	}()
	session.Handler = s.handler

	if err := session.Register(s.config.Priority, tableOID); err != nil {
		return fmt.Errorf("failed to register %s: %w", tableOID, err)
	}
	s.logger.Info("registered table", "oid", tableOID.String(), "priority", s.config.Priority)

	<-ctx.Done()
	s.logger.Info("stopping subagent")

	if err := session.Unregister(s.config.Priority, tableOID); err != nil {
		s.logger.Error(err, "failed to unregister table", "oid", tableOID.String())
	}
	s.handler.Reset()
	return nil
}

// connect dials the master agent with exponential backoff.
func (s *Subagent) connect(ctx context.Context) (*agentx.Client, error) {
	opts := []backoff.RetryOption{backoff.WithBackOff(backoff.NewExponentialBackOff())}
	if s.config.MaxConnectTime > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(s.config.MaxConnectTime))
	}

	client, err := backoff.Retry(ctx, func() (*agentx.Client, error) {
		client, err := s.dial(s.config.Network, s.config.Address)
		if err != nil {
			s.logger.Error(err, "failed to connect to master agent, retrying...",
				"network", s.config.Network, "address", s.config.Address)
			return nil, err
		}
		// The receiver goroutine is already running; set everything before
		// the first request so it observes these values.
		client.Timeout = s.config.Timeout
		client.ReconnectInterval = s.config.ReconnectInterval
		client.NameOID = s.handler.TableOID()
		client.Name = s.config.Description
		return client, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to master agent at %s:%s: %w",
			s.config.Network, s.config.Address, err)
	}
	s.logger.Info("connected to master agent", "network", s.config.Network, "address", s.config.Address)
	return client, nil
}

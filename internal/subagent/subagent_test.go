// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package subagent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	"github.com/posteo/go-agentx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	h, _ := newTestHandler(t, twoSensors())

	_, err := New(testr.New(t), Config{Network: "tcp", Address: "localhost:705"}, nil)
	assert.ErrorContains(t, err, "handler is required")

	_, err = New(testr.New(t), Config{Network: "tcp"}, h)
	assert.ErrorContains(t, err, "network and address are required")

	s, err := New(testr.New(t), Config{Network: "unix", Address: "/var/agentx/master"}, h)
	require.NoError(t, err)
	assert.NotNil(t, s.dial)
	assert.Equal(t, DefaultDescription, s.config.Description)
}

func TestSubagent_ConnectRetriesUntilDeadline(t *testing.T) {
	h, _ := newTestHandler(t, twoSensors())
	s, err := New(testr.New(t), Config{
		Network:        "tcp",
		Address:        "localhost:705",
		MaxConnectTime: 300 * time.Millisecond,
	}, h)
	require.NoError(t, err)

	var attempts atomic.Int32
	s.dial = func(network, address string) (*agentx.Client, error) {
		attempts.Add(1)
		assert.Equal(t, "tcp", network)
		assert.Equal(t, "localhost:705", address)
		return nil, errors.New("connection refused")
	}

	err = s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to master agent at tcp:localhost:705")
	assert.GreaterOrEqual(t, attempts.Load(), int32(1))
}

func TestSubagent_ConnectStopsOnCancel(t *testing.T) {
	h, _ := newTestHandler(t, twoSensors())
	s, err := New(testr.New(t), Config{Network: "tcp", Address: "localhost:705"}, h)
	require.NoError(t, err)
	s.dial = func(string, string) (*agentx.Client, error) {
		return nil, errors.New("connection refused")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}

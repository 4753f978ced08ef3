package main

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func runAdmin(ctx context.Context, addr string) <-chan error {
	done := make(chan error, 1)
	go func() { done <- serveAdmin(ctx, addr, http.NewServeMux()) }()
	return done
}

func TestServeAdminPortInUseIsNotFatal(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	select {
	case err := <-runAdmin(ctx, ln.Addr().String()):
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serveAdmin did not return after the listen failure")
	}
}

func TestServeAdminStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := runAdmin(ctx, addr)

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serveAdmin did not stop")
	}
}

package main

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/adapters/outbound/memory"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
)

type failingSink struct{ err error }

func (f failingSink) Publish(context.Context, entity.CycleEvent) error { return f.err }
func (f failingSink) Close() error                                     { return nil }

func TestFanoutSink(t *testing.T) {
	first := memory.NewEventSink()
	second := memory.NewEventSink()
	boom := errors.New("boom")
	sink := fanoutSink{first, failingSink{err: boom}, second}

	err := sink.Publish(context.Background(), entity.CycleEvent{Kind: entity.OutcomeCycleStarted})
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error, got %v", err)
	}
	if len(first.GetEvents()) != 1 || len(second.GetEvents()) != 1 {
		t.Errorf("expected every sink to receive the event, got %d and %d", len(first.GetEvents()), len(second.GetEvents()))
	}
	if err := sink.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"RPC_URL", "CHAIN_ID", "CONTRACT_ADDRESS", "IPFS_GATEWAY", "CALL_TIMEOUT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadSettings_FlagOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("RPC_URL", "http://env:8545")

	settings, network, err := loadSettings(&rootFlags{
		rpcURL:   "http://flag:8545",
		contract: "0x00000000000000000000000000000000000000c0",
		chainID:  1,
	})
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if settings.RPCURL != "http://flag:8545" {
		t.Errorf("RPCURL = %s", settings.RPCURL)
	}
	if settings.Contract().Hex() != "0x00000000000000000000000000000000000000C0" {
		t.Errorf("Contract = %s", settings.Contract().Hex())
	}
	if network.Name != "Ethereum" {
		t.Errorf("Network = %s", network.Name)
	}
}

func TestLoadSettings_Errors(t *testing.T) {
	tests := []struct {
		name    string
		flags   rootFlags
		wantErr error
	}{
		{name: "unknown chain", flags: rootFlags{chainID: 999999}, wantErr: entity.ErrUnknownNetwork},
		{name: "bad contract", flags: rootFlags{contract: "0xnope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, _, err := loadSettings(&tt.flags)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewApp_RequiresRPCURL(t *testing.T) {
	clearEnv(t)
	settings, network, err := loadSettings(&rootFlags{})
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}

	_, err = newApp(context.Background(), settings, network, newLogger(os.Stderr), appOptions{})
	if err == nil || err.Error() != "RPC_URL is required" {
		t.Errorf("expected RPC_URL error, got %v", err)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"minted", "wallet", "serve", "snapshots"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("expected subcommand %q, got %v (%v)", name, cmd, err)
		}
	}
}

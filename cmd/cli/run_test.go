package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/Philanthropists/bluetooth-manager/internal/bluetooth/bluetoothtypes"
	"github.com/Philanthropists/bluetooth-manager/internal/types/result"
)

var headphones = bluetoothtypes.Address{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}

type fakeBackend struct {
	adapter map[string]any
	set     map[string]any
	calls   []string

	mu              sync.Mutex
	stopDelay       time.Duration
	stopped         bool
	closed          bool
	stoppedAtClosed bool
}

func (f *fakeBackend) AdapterNames(context.Context) ([]string, error) {
	return []string{"hci0", "hci1"}, nil
}

func (f *fakeBackend) AdapterProperties(_ context.Context, adapter string) (map[string]any, error) {
	f.calls = append(f.calls, "properties "+adapter)
	return f.adapter, nil
}

func (f *fakeBackend) SetAdapterProperty(_ context.Context, _, name string, value any) error {
	f.set[name] = value
	return nil
}

func (f *fakeBackend) DeviceAddresses(context.Context, string) ([]bluetoothtypes.Address, error) {
	return []bluetoothtypes.Address{headphones}, nil
}

func (f *fakeBackend) DeviceProperties(context.Context, string, bluetoothtypes.Address) (map[string]any, error) {
	return map[string]any{"Name": "headphones"}, nil
}

func (f *fakeBackend) StartDiscovery(context.Context, string) error { return nil }

func (f *fakeBackend) StopDiscovery(context.Context, string) error {
	time.Sleep(f.stopDelay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeBackend) Connect(_ context.Context, _ string, addr bluetoothtypes.Address) error {
	f.calls = append(f.calls, "connect "+addr.String())
	return nil
}

func (f *fakeBackend) Disconnect(_ context.Context, _ string, addr bluetoothtypes.Address) error {
	f.calls = append(f.calls, "disconnect "+addr.String())
	return nil
}

func (f *fakeBackend) Watch(context.Context, string) (<-chan result.Result[bluetoothtypes.PropertyEvent, error], error) {
	return make(chan result.Result[bluetoothtypes.PropertyEvent, error]), nil
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.stoppedAtClosed = f.stopped
	return nil
}

type output struct {
	Value json.RawMessage `json:"value"`
	Error *string         `json:"error"`
}

func newFake() *fakeBackend {
	return &fakeBackend{
		adapter: map[string]any{"Alias": "desk", "Powered": true},
		set:     map[string]any{},
	}
}

func runApp(t *testing.T, args ...string) (*fakeBackend, output, bool) {
	t.Helper()
	return runAppWith(t, context.Background(), newFake(), args...)
}

func runAppWith(t *testing.T, ctx context.Context, fake *fakeBackend, args ...string) (*fakeBackend, output, bool) {
	t.Helper()

	previous := dial
	dial = func() (backend, error) { return fake, nil }
	t.Cleanup(func() { dial = previous })

	var buf bytes.Buffer

	app := newApp()
	app.Writer = &buf
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.RunContext(ctx, append([]string{"bluetooth-manager"}, args...))
	failed := err != nil

	var out output
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out), buf.String())
	assert.True(t, fake.closed)

	return fake, out, failed
}

func TestAdapterCommand(t *testing.T) {
	fake, out, failed := runApp(t, "adapter")
	require.False(t, failed)

	var info bluetoothtypes.AdapterInfo
	require.NoError(t, json.Unmarshal(out.Value, &info))
	assert.Equal(t, "hci0", info.Name)
	assert.Equal(t, "desk", info.Alias)
	assert.Contains(t, fake.calls, "properties hci0")
}

func TestAdapterFlagSelectsAdapter(t *testing.T) {
	fake, _, failed := runApp(t, "--adapter", "hci1", "adapter")
	require.False(t, failed)
	assert.Contains(t, fake.calls, "properties hci1")
}

func TestConfigFileSelectsAdapter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"adapter":"hci1"}`), 0o600))

	fake, _, failed := runApp(t, "--config", path, "adapter")
	require.False(t, failed)
	assert.Contains(t, fake.calls, "properties hci1")
}

func TestSetters(t *testing.T) {
	tests := []struct {
		args     []string
		property string
		value    any
	}{
		{args: []string{"alias", "kitchen"}, property: "Alias", value: "kitchen"},
		{args: []string{"powered", "false"}, property: "Powered", value: false},
		{args: []string{"pairable", "true"}, property: "Pairable", value: true},
		{args: []string{"discoverable", "1"}, property: "Discoverable", value: true},
		{args: []string{"discoverable-timeout", "180"}, property: "DiscoverableTimeout", value: uint32(180)},
	}

	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			fake, out, failed := runApp(t, tt.args...)
			require.False(t, failed)
			assert.Nil(t, out.Error)
			assert.Equal(t, tt.value, fake.set[tt.property])
		})
	}
}

func TestBadArgumentsFail(t *testing.T) {
	tests := [][]string{
		{"alias"},
		{"powered", "maybe"},
		{"discoverable-timeout", "soon"},
		{"connect", "not-an-address"},
	}

	for _, args := range tests {
		t.Run(args[0], func(t *testing.T) {
			fake, out, failed := runApp(t, args...)
			assert.True(t, failed)
			require.NotNil(t, out.Error)
			assert.Empty(t, fake.set)
		})
	}
}

func TestDevicesCommand(t *testing.T) {
	_, out, failed := runApp(t, "devices")
	require.False(t, failed)

	var devices []bluetoothtypes.DeviceInfo
	require.NoError(t, json.Unmarshal(out.Value, &devices))
	require.Len(t, devices, 1)
	assert.Equal(t, "headphones", devices[0].Name)
	assert.Equal(t, headphones.String(), devices[0].AddressString)
}

func TestConnectCommands(t *testing.T) {
	fake, out, failed := runApp(t, "connect", headphones.String())
	require.False(t, failed)
	assert.JSONEq(t, `"11:22:33:44:55:66"`, string(out.Value))
	assert.Contains(t, fake.calls, "connect 11:22:33:44:55:66")

	fake, _, failed = runApp(t, "disconnect", "11:22:33:44:55:66")
	require.False(t, failed)
	assert.Contains(t, fake.calls, "disconnect 11:22:33:44:55:66")

	_, out, failed = runApp(t, "connect", "00:00:00:00:00:01")
	assert.True(t, failed)
	require.NotNil(t, out.Error)
}

func TestDiscoverCommand(t *testing.T) {
	_, out, failed := runApp(t, "discover", "--timeout", "10ms")
	require.False(t, failed)

	var devices []bluetoothtypes.DeviceInfo
	require.NoError(t, json.Unmarshal(out.Value, &devices))
	assert.Len(t, devices, 1)
}

func TestInterruptedDiscoverStopsDiscoveryBeforeClosing(t *testing.T) {
	fake := newFake()
	fake.stopDelay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(100*time.Millisecond, cancel)

	_, out, failed := runAppWith(t, ctx, fake, "discover", "--timeout", "1h")
	require.False(t, failed)
	assert.Nil(t, out.Error)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.True(t, fake.stoppedAtClosed)
}

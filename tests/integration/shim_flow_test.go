package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moduleshim/internal/adapters"
	"moduleshim/internal/app"
	"moduleshim/internal/types"
	"moduleshim/tests/testutil"
)

// TestShimFlow runs the shim against an on-disk install root with the
// default adapters:
//
//	initialize -> concurrent host resolution -> outbound TLS -> shutdown
func TestShimFlow(t *testing.T) {
	root := t.TempDir()
	ownDir := filepath.Join(root, "Shim")
	testutil.WriteFile(t, filepath.Join(ownDir, types.DefaultMarkerFile), []byte("{}"))
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("Lib%d, Version=1.%d.0, Culture=neutral", i, i)
		testutil.WriteFile(t, filepath.Join(ownDir, fmt.Sprintf("lib%d.wasm", i)), testutil.WasmModule(name))
	}
	testutil.WriteFile(t, filepath.Join(root, "AviRockets", "rockets.wasm"), testutil.WasmModule("AviRockets"))

	pki := testutil.NewTestPKI(t, "Flow Root")
	stranger := testutil.NewTestPKI(t, "Stranger Root")
	trusted := testutil.TLSServer(t, pki.ServerCertificate(t, "trusted.example.test"))
	untrusted := testutil.TLSServer(t, stranger.ServerCertificate(t, "untrusted.example.test"))

	config := types.DefaultShimConfig()
	config.InstallRoot = root
	shim := app.NewShim(t.Context(), config)
	t.Cleanup(func() { _ = shim.Close(context.Background()) })
	var console bytes.Buffer
	shim.Reporter = adapters.NewConsoleScanReporter(&console, "moduleshim")
	slot, ok := shim.Slot.(*adapters.TLSConfigSlot)
	require.True(t, ok)
	slot.Config().RootCAs = pki.Roots
	host, ok := shim.Host.(*adapters.ProcessHost)
	require.True(t, ok)

	originalTransport := http.DefaultTransport
	t.Cleanup(func() { http.DefaultTransport = originalTransport })

	initialized, err := shim.Initialize(t.Context(), app.InitializeRequest{})
	require.NoError(t, err)
	require.True(t, initialized)
	assert.Empty(t, console.String())
	assert.Len(t, shim.Modules(), 8)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lib := i % 8
			requested := fmt.Sprintf("Lib%d, Version=9.9.9, Culture=neutral", lib)
			module, found := host.Resolve(t.Context(), requested)
			if !found {
				errs <- fmt.Errorf("%s unresolved", requested)
				return
			}
			if want := fmt.Sprintf("1.%d.0", lib); module.Version != want {
				errs <- fmt.Errorf("%s resolved to %s, want %s", requested, module.Version, want)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, 8, shim.Resolver().CacheSize())

	resp, err := http.Get(trusted.URL)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	_, err = http.Get(untrusted.URL)
	require.Error(t, err, "a chain rooted outside the trust store is not tolerated")

	require.NoError(t, shim.Shutdown(t.Context()))
	assert.Same(t, originalTransport, http.DefaultTransport)
	assert.Nil(t, slot.Validator())
	assert.Equal(t, 0, host.Registered())
}

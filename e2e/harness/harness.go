// Package harness drives awsbrowse end to end: commands through cobra and
// the TUI through its root model, against inventories written to a temp dir.
package harness

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/artpar/awsbrowse/internal/cli"
	"github.com/artpar/awsbrowse/internal/source/fixture"
	"github.com/artpar/awsbrowse/internal/source/wsfeed"
)

// E2EHarness is the main test orchestrator.
type E2EHarness struct {
	t         *testing.T
	tmpDir    string
	inventory string
	timeout   time.Duration
	agents    []*httptest.Server
}

// Config configures the harness.
type Config struct {
	// Inventory is YAML written to the harness inventory file.
	Inventory string
	Timeout   time.Duration // Default: 5 seconds
}

// New creates a new E2E harness.
func New(t *testing.T, cfg Config) *E2EHarness {
	t.Helper()

	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Inventory == "" {
		cfg.Inventory = DefaultInventory
	}

	h := &E2EHarness{
		t:       t,
		tmpDir:  t.TempDir(),
		timeout: cfg.Timeout,
	}
	h.inventory = filepath.Join(h.tmpDir, "inventory.yaml")
	h.WriteInventory(cfg.Inventory)

	t.Cleanup(h.cleanup)
	return h
}

func (h *E2EHarness) cleanup() {
	for _, srv := range h.agents {
		srv.Close()
	}
}

// InventoryPath returns the path of the inventory file.
func (h *E2EHarness) InventoryPath() string {
	return h.inventory
}

// ConfigPath returns a config path inside the temp dir. Nothing is written
// there unless WriteConfig is called.
func (h *E2EHarness) ConfigPath() string {
	return filepath.Join(h.tmpDir, "config.yaml")
}

// WriteInventory replaces the inventory file.
func (h *E2EHarness) WriteInventory(yaml string) {
	h.t.Helper()
	if err := os.WriteFile(h.inventory, []byte(yaml), 0o644); err != nil {
		h.t.Fatalf("failed to write inventory: %v", err)
	}
}

// WriteConfig writes the config file read by CLI runs.
func (h *E2EHarness) WriteConfig(yaml string) {
	h.t.Helper()
	if err := os.WriteFile(h.ConfigPath(), []byte(yaml), 0o644); err != nil {
		h.t.Fatalf("failed to write config: %v", err)
	}
}

// StartAgent serves the inventory file over websocket and returns the feed
// URL.
func (h *E2EHarness) StartAgent() string {
	h.t.Helper()
	src, err := fixture.Open(h.inventory)
	if err != nil {
		h.t.Fatalf("failed to open inventory: %v", err)
	}
	h.t.Cleanup(func() { src.Close() })

	mux := http.NewServeMux()
	mux.Handle(cli.FeedPath, wsfeed.NewServer(src, wsfeed.DefaultConfig(), logr.Discard()))
	srv := httptest.NewServer(mux)
	h.agents = append(h.agents, srv)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + cli.FeedPath
}

// TmpDir returns the temporary directory path.
func (h *E2EHarness) TmpDir() string {
	return h.tmpDir
}

// Timeout returns the configured timeout.
func (h *E2EHarness) Timeout() time.Duration {
	return h.timeout
}

// T returns the testing.T instance.
func (h *E2EHarness) T() *testing.T {
	return h.t
}

// CLI returns a CLI runner for this harness.
func (h *E2EHarness) CLI() *CLIRunner {
	return &CLIRunner{harness: h}
}

// TUI returns a TUI runner for this harness.
func (h *E2EHarness) TUI() *TUIRunner {
	return &TUIRunner{harness: h}
}

// DefaultInventory is used when Config.Inventory is empty.
const DefaultInventory = `
bucket:
  - name: app-assets
    region: us-east-1
    size: 73400320
    children:
      - name: css/
        children:
          - name: site.css
            size: 18342
      - name: index.html
        size: 5120
  - name: audit-logs
    region: eu-west-1
    error: "AccessDenied: not authorized to perform s3:ListBucket"
  - name: build-cache
    region: us-west-2
    children:
      - name: deps.tar.zst
        size: 208001239
stack:
  - name: network
    status: UPDATE_COMPLETE
    region: us-east-1
    children:
      - name: Vpc
        status: CREATE_COMPLETE
      - name: PublicSubnetA
        status: CREATE_COMPLETE
function:
  - name: thumbnailer
    region: us-east-1
    attrs:
      runtime: python3.12
role:
  - name: deploy
  - name: lambda-exec
`

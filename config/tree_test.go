package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dhcp6d.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_basicTree(t *testing.T) {
	path := writeTempConfig(t, `
listener:
  - interface: eth0
    address: "[::]:547"
worker-pool:
  workers: 4
  queue-depth: 16
statistics:
  listen: "127.0.0.1:9547"
control-socket:
  path: /run/dhcp6d.sock
server-id:
  duid: "00030001aabbccddeeff"
`)

	tree, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if want, got := 1, len(tree.Listeners); want != got {
		t.Fatalf("unexpected listener count: %v != %v", want, got)
	}
	if want, got := "eth0", tree.Listeners[0].Interface; want != got {
		t.Fatalf("unexpected interface: %v != %v", want, got)
	}
	if want, got := 4, tree.WorkerPool.Workers; want != got {
		t.Fatalf("unexpected workers: %v != %v", want, got)
	}
	if want, got := "127.0.0.1:9547", tree.Statistics.Listen; want != got {
		t.Fatalf("unexpected statistics listen: %v != %v", want, got)
	}
	if want, got := "/run/dhcp6d.sock", tree.ControlSocket.Path; want != got {
		t.Fatalf("unexpected control socket path: %v != %v", want, got)
	}
}

func TestLoad_unknownTopLevelSectionIsFatal(t *testing.T) {
	path := writeTempConfig(t, `
listener:
  - interface: eth0
made-up-section:
  foo: bar
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected an unknown top-level section to be a load error")
	}
}

func TestLoad_unknownNestedFieldIsFatal(t *testing.T) {
	path := writeTempConfig(t, `
listener:
  - interface: eth0
    bogus-field: 1
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected an unknown nested field to be a load error")
	}
}

func TestLoad_missingFileIsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Fatal("expected a missing file to be an error")
	}
}

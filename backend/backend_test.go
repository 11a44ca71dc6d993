package backend

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/glthread"
)

type fakeDriver struct {
	name    string
	initErr error
	inited  bool
}

func (d *fakeDriver) Name() string                      { return d.name }
func (d *fakeDriver) Close()                            {}
func (d *fakeDriver) Supports(glthread.Capability) bool { return d.inited }
func (d *fakeDriver) ContextLost() bool                 { return false }

func (d *fakeDriver) Init() error {
	d.inited = d.initErr == nil
	return d.initErr
}

func register(t *testing.T, name string, initErr error) {
	t.Helper()
	Register(name, func() Driver { return &fakeDriver{name: name, initErr: initErr} })
	t.Cleanup(func() { Unregister(name) })
}

func TestRegistry(t *testing.T) {
	register(t, "test-b", nil)
	register(t, "test-a", nil)

	if !IsRegistered("test-a") {
		t.Error("IsRegistered(test-a) = false")
	}
	names := Available()
	if i, j := slices.Index(names, "test-a"), slices.Index(names, "test-b"); i < 0 || j < 0 || i > j {
		t.Errorf("Available() = %v, want sorted and containing test-a, test-b", names)
	}
	if Get("missing") != nil {
		t.Error("Get(missing) should return nil")
	}
	if d := Get("test-a"); d == nil || d.Name() != "test-a" {
		t.Errorf("Get(test-a) = %v", d)
	}

	Unregister("test-a")
	if IsRegistered("test-a") {
		t.Error("Unregister did not remove test-a")
	}
}

func TestOpen(t *testing.T) {
	register(t, "test-ok", nil)
	register(t, "test-broken", errors.New("no device"))

	d, err := Open("test-ok")
	if err != nil {
		t.Fatalf("Open(test-ok) error = %v", err)
	}
	if !d.Supports(glthread.CapMapUnsynchronizedThreadSafe) {
		t.Error("opened driver should be initialized")
	}

	if _, err := Open("test-broken"); err == nil {
		t.Error("Open(test-broken) should fail")
	}
	if _, err := Open("missing"); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(missing) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestOpenDefaultPriority(t *testing.T) {
	if names := Available(); len(names) != 0 {
		t.Fatalf("registry not empty: %v", names)
	}
	register(t, "zzz", nil)
	register(t, BackendNoop, nil)
	register(t, BackendVulkan, errors.New("no loader"))

	d, err := OpenDefault()
	if err != nil {
		t.Fatalf("OpenDefault() error = %v", err)
	}
	if d.Name() != BackendNoop {
		t.Errorf("OpenDefault() = %s, want %s (vulkan fails to open)", d.Name(), BackendNoop)
	}
}

func TestOpenDefaultEmpty(t *testing.T) {
	if _, err := OpenDefault(); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("OpenDefault() error = %v, want ErrBackendNotAvailable", err)
	}
}

package rsync

import (
	"context"
	"strings"
	"testing"
)

type fakeExecutor struct {
	binary   string
	args     []string
	exitCode int
	stdout   string
	stderr   string
	err      error
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string) (int, string, string, error) {
	f.binary = binary
	f.args = args
	return f.exitCode, f.stdout, f.stderr, f.err
}

func newTestClient(t *testing.T, exec Executor) *Client {
	t.Helper()
	client, err := NewWithOptions("rsync", "/etc/hostname", WithExecutor(exec))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewRequiresBinaryAndReference(t *testing.T) {
	if _, err := New("", "/etc/hostname"); err == nil {
		t.Fatal("expected error for empty binary")
	}
	if _, err := New("rsync", " "); err == nil {
		t.Fatal("expected error for empty preflight file")
	}
}

func TestTransferArguments(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantBin  string
		wantArgs []string
	}{
		{
			"plain",
			Options{},
			"rsync",
			[]string{"/src/postdata_1.bin", "/mnt/store0"},
		},
		{
			"full options",
			Options{RemoveSource: true, Preallocate: true, WholeFile: true, BandwidthLimit: 20000},
			"rsync",
			[]string{"--remove-source-files", "--preallocate", "--whole-file", "--bwlimit=20000", "/src/postdata_1.bin", "/mnt/store0"},
		},
		{
			"ionice idle",
			Options{WholeFile: true, IOPriority: "idle"},
			"ionice",
			[]string{"-c", "3", "rsync", "--whole-file", "/src/postdata_1.bin", "/mnt/store0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeExecutor{}
			client := newTestClient(t, fake)
			if _, err := client.Transfer(context.Background(), "/src/postdata_1.bin", "/mnt/store0", tt.opts); err != nil {
				t.Fatalf("transfer: %v", err)
			}
			if fake.binary != tt.wantBin {
				t.Errorf("binary = %q, want %q", fake.binary, tt.wantBin)
			}
			if strings.Join(fake.args, " ") != strings.Join(tt.wantArgs, " ") {
				t.Errorf("args = %v, want %v", fake.args, tt.wantArgs)
			}
		})
	}
}

func TestTransferReportsExitCode(t *testing.T) {
	fake := &fakeExecutor{exitCode: 23, stderr: "partial transfer"}
	client := newTestClient(t, fake)

	result, err := client.Transfer(context.Background(), "/src/postdata_1.bin", "host:/srv", Options{})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if result.Succeeded() {
		t.Fatal("exit 23 must not count as success")
	}
	if result.ExitCode != 23 || result.Stderr != "partial transfer" {
		t.Fatalf("result = %+v", result)
	}
}

func TestTransferRejectsEmptyPaths(t *testing.T) {
	client := newTestClient(t, &fakeExecutor{})
	if _, err := client.Transfer(context.Background(), "", "/mnt/store0", Options{}); err == nil {
		t.Fatal("expected error for empty source")
	}
	if _, err := client.Transfer(context.Background(), "/src/a.bin", "", Options{}); err == nil {
		t.Fatal("expected error for empty destination")
	}
}

func TestPreflightUsesReferenceFile(t *testing.T) {
	fake := &fakeExecutor{}
	client := newTestClient(t, fake)

	if _, err := client.Preflight(context.Background(), "/mnt/store0"); err != nil {
		t.Fatalf("preflight: %v", err)
	}
	joined := strings.Join(fake.args, " ")
	if !strings.Contains(joined, "/etc/hostname /mnt/store0") {
		t.Fatalf("preflight args = %v", fake.args)
	}
	if strings.Contains(joined, "--remove-source-files") {
		t.Fatal("preflight must never remove its reference file")
	}
}

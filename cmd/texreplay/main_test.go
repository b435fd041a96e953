package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/texstate/internal/codec"
)

func testdata(name string) string {
	return filepath.Join("..", "..", "internal", "replay", "testdata", name)
}

func TestRun_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"passing trace", []string{"--trace", testdata("frame.yaml")}, exitOK},
		{"jsonc trace", []string{"--trace", testdata("frame.jsonc"), "--workers", "2"}, exitOK},
		{"failed expectation", []string{"--trace", testdata("depth.yaml")}, exitFailed},
		{"missing trace flag", nil, exitUsage},
		{"missing file", []string{"--trace", testdata("nope.yaml")}, exitUsage},
		{"unknown flag", []string{"--frobnicate"}, exitUsage},
		{"extra argument", []string{"--trace", testdata("frame.yaml"), "extra"}, exitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := run(context.Background(), tt.args, &stdout, &stderr); got != tt.want {
				t.Errorf("run() = %d, want %d\nstdout:\n%s\nstderr:\n%s", got, tt.want, &stdout, &stderr)
			}
		})
	}
}

func TestRun_Output(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"--trace", testdata("frame.yaml")}, &stdout, &stderr); code != exitOK {
		t.Fatalf("run() = %d, stderr:\n%s", code, &stderr)
	}

	out := stdout.String()
	for _, want := range []string{
		"trace frame",
		"barrier texture ID(1,1)",
		"copy_dst -> color_target",
		"conflict:",
		"2 barriers, 1 conflicts, 0 failed expectations",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
}

func TestRun_Dump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.cbor")

	var stdout, stderr bytes.Buffer
	args := []string{"--trace", testdata("frame.yaml"), "--dump", path}
	if code := run(context.Background(), args, &stdout, &stderr); code != exitOK {
		t.Fatalf("run() = %d, stderr:\n%s", code, &stderr)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	snaps, err := codec.DecodeSnapshots(f)
	if err != nil {
		t.Fatalf("DecodeSnapshots: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("DecodeSnapshots() returned %d snapshots, want 2", len(snaps))
	}

	var labels []string
	for _, snap := range snaps {
		tr, err := codec.Restore(snap)
		if err != nil {
			t.Fatalf("Restore: %v", err)
		}
		labels = append(labels, tr.Label())
		if tr.Len() != 1 {
			t.Errorf("scope %s: Len() = %d, want 1", tr.Label(), tr.Len())
		}
	}
	if strings.Join(labels, ",") != "frame,pass" {
		t.Errorf("labels = %v, want [frame pass]", labels)
	}
}

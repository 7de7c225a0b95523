package service

import (
	"bytes"
	"strings"
	"testing"
)

func TestUnitArgs(t *testing.T) {
	u := Unit{BinaryPath: "/usr/local/bin/promptstudio"}
	if got := strings.Join(u.Args(), " "); got != "/usr/local/bin/promptstudio rescore --daemon" {
		t.Fatalf("args = %q", got)
	}

	u.ConfigPath = "/etc/promptstudio.yaml"
	if got := strings.Join(u.Args(), " "); got != "/usr/local/bin/promptstudio rescore --daemon --config /etc/promptstudio.yaml" {
		t.Fatalf("args = %q", got)
	}
}

func TestWriteSystemdUnit(t *testing.T) {
	var buf bytes.Buffer
	u := Unit{BinaryPath: "/usr/local/bin/promptstudio", ConfigPath: "/etc/ps.yaml", LogPath: "/tmp/ps.log"}
	if err := WriteSystemdUnit(&buf, u); err != nil {
		t.Fatalf("WriteSystemdUnit: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"ExecStart=/usr/local/bin/promptstudio rescore --daemon --config /etc/ps.yaml\n",
		"StandardOutput=append:/tmp/ps.log\n",
		"WantedBy=multi-user.target",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("unit missing %q:\n%s", want, out)
		}
	}
}

func TestWriteLaunchdPlist(t *testing.T) {
	var buf bytes.Buffer
	u := Unit{BinaryPath: "/opt/promptstudio", LogPath: "/tmp/ps.log"}
	if err := WriteLaunchdPlist(&buf, u); err != nil {
		t.Fatalf("WriteLaunchdPlist: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<string>" + Label + "</string>",
		"<string>/opt/promptstudio</string>\n        <string>rescore</string>\n        <string>--daemon</string>\n",
		"<string>/tmp/ps.log</string>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("plist missing %q:\n%s", want, out)
		}
	}
}

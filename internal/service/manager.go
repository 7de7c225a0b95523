// Package service installs the scheduled re-scorer as a launchd daemon
// (darwin) or a systemd unit (linux).
package service

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"text/template"
)

// Name is the systemd unit base name.
const Name = "promptstudio-rescore"

// Label is the launchd label.
const Label = "com.kayz.promptstudio.rescore"

// Unit describes what the installed service runs.
type Unit struct {
	BinaryPath string
	// ConfigPath is passed as --config when set.
	ConfigPath string
	LogPath    string
}

// Args returns the command line of the daemon, binary first.
func (u Unit) Args() []string {
	args := []string{u.BinaryPath, "rescore", "--daemon"}
	if u.ConfigPath != "" {
		args = append(args, "--config", u.ConfigPath)
	}
	return args
}

// Paths returns the installed binary and service definition paths.
func Paths() (binaryPath, definitionPath string, err error) {
	switch runtime.GOOS {
	case "darwin":
		return "/Library/PrivilegedHelperTools/" + Label,
			"/Library/LaunchDaemons/" + Label + ".plist", nil
	case "linux":
		return "/usr/local/bin/promptstudio",
			"/etc/systemd/system/" + Name + ".service", nil
	default:
		return "", "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// IsInstalled checks whether the service definition and binary exist.
func IsInstalled() bool {
	binaryPath, definitionPath, err := Paths()
	if err != nil {
		return false
	}
	if _, err := os.Stat(definitionPath); err != nil {
		return false
	}
	_, err = os.Stat(binaryPath)
	return err == nil
}

// IsRunning checks if the service is running.
func IsRunning() bool {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("launchctl", "list", Label).Run() == nil
	case "linux":
		return exec.Command("systemctl", "is-active", "--quiet", Name).Run() == nil
	default:
		return false
	}
}

// Install copies sourceBinary into place, writes the service definition
// and enables it. configPath is made absolute so the daemon finds it.
func Install(sourceBinary, configPath string) error {
	binaryPath, definitionPath, err := Paths()
	if err != nil {
		return err
	}
	if configPath != "" {
		if configPath, err = filepath.Abs(configPath); err != nil {
			return err
		}
	}

	if err := copyBinary(sourceBinary, binaryPath); err != nil {
		return fmt.Errorf("failed to copy binary: %w", err)
	}

	unit := Unit{BinaryPath: binaryPath, ConfigPath: configPath, LogPath: "/tmp/promptstudio-rescore.log"}
	if err := writeDefinition(definitionPath, unit); err != nil {
		return fmt.Errorf("failed to create service config: %w", err)
	}

	if err := enable(definitionPath); err != nil {
		return fmt.Errorf("failed to enable service: %w", err)
	}
	return nil
}

// Uninstall stops and removes the service and its binary.
func Uninstall() error {
	_ = Stop()

	binaryPath, definitionPath, err := Paths()
	if err != nil {
		return err
	}
	switch runtime.GOOS {
	case "darwin":
		exec.Command("launchctl", "unload", definitionPath).Run()
	case "linux":
		exec.Command("systemctl", "disable", Name).Run()
		exec.Command("systemctl", "daemon-reload").Run()
	}
	os.Remove(definitionPath)
	os.Remove(binaryPath)
	return nil
}

// Start starts the service.
func Start() error {
	_, definitionPath, err := Paths()
	if err != nil {
		return err
	}
	if runtime.GOOS == "darwin" {
		return exec.Command("launchctl", "load", definitionPath).Run()
	}
	return exec.Command("systemctl", "start", Name).Run()
}

// Stop stops the service.
func Stop() error {
	_, definitionPath, err := Paths()
	if err != nil {
		return err
	}
	if runtime.GOOS == "darwin" {
		return exec.Command("launchctl", "unload", definitionPath).Run()
	}
	return exec.Command("systemctl", "stop", Name).Run()
}

func copyBinary(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0755)
}

func writeDefinition(path string, u Unit) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if runtime.GOOS == "darwin" {
		return WriteLaunchdPlist(f, u)
	}
	return WriteSystemdUnit(f, u)
}

func enable(definitionPath string) error {
	if runtime.GOOS == "darwin" {
		return exec.Command("launchctl", "load", definitionPath).Run()
	}
	if err := exec.Command("systemctl", "daemon-reload").Run(); err != nil {
		return err
	}
	return exec.Command("systemctl", "enable", Name).Run()
}

var launchdPlist = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
{{- range .Args}}
        <string>{{.}}</string>
{{- end}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>StandardOutPath</key>
    <string>{{.LogPath}}</string>
    <key>StandardErrorPath</key>
    <string>{{.LogPath}}</string>
</dict>
</plist>
`))

// WriteLaunchdPlist renders the launchd definition of u.
func WriteLaunchdPlist(w io.Writer, u Unit) error {
	return launchdPlist.Execute(w, map[string]interface{}{
		"Label":   Label,
		"Args":    u.Args(),
		"LogPath": u.LogPath,
	})
}

var systemdUnit = template.Must(template.New("unit").Parse(`[Unit]
Description=Prompt Studio scheduled re-scoring
After=local-fs.target

[Service]
Type=simple
ExecStart={{range $i, $a := .Args}}{{if $i}} {{end}}{{$a}}{{end}}
Restart=always
RestartSec=5
StandardOutput=append:{{.LogPath}}
StandardError=append:{{.LogPath}}

[Install]
WantedBy=multi-user.target
`))

// WriteSystemdUnit renders the systemd unit of u.
func WriteSystemdUnit(w io.Writer, u Unit) error {
	return systemdUnit.Execute(w, map[string]interface{}{
		"Args":    u.Args(),
		"LogPath": u.LogPath,
	})
}

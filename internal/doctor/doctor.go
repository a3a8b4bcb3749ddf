// Package doctor reports the coordination state scribe would act on: config,
// session identity, endpoint artifact ownership and primary reachability.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rbright/scribe/internal/config"
	"github.com/rbright/scribe/internal/endpoint"
	"github.com/rbright/scribe/internal/transport"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Input is what Run inspects.
type Input struct {
	Config    config.Loaded
	Identity  endpoint.Identity
	Endpoint  endpoint.Endpoint
	Transport transport.Options
}

// Run executes environment/config/endpoint checks. It never binds or
// removes anything.
func Run(ctx context.Context, in Input) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: configMessage(in.Config),
	})
	checks = append(checks, Check{
		Name:    "identity",
		Pass:    true,
		Message: fmt.Sprintf("host=%q display=%q", in.Identity.Host, in.Identity.SanitizedDisplay()),
	})

	if in.Endpoint == nil {
		checks = append(checks, Check{Name: "endpoint", Pass: false, Message: "no endpoint selected"})
		return Report{Checks: checks}
	}
	checks = append(checks, Check{
		Name:    "endpoint",
		Pass:    true,
		Message: fmt.Sprintf("%s %s", in.Endpoint.Kind(), in.Endpoint.Addr()),
	})

	if socket, ok := in.Endpoint.(*endpoint.Socket); ok {
		checks = append(checks, checkArtifact(socket.Path, socket.UID))
		checks = append(checks, checkWritableDir("tmp_dir", socket.TmpDir))
	}
	checks = append(checks, checkReachable(ctx, in.Endpoint, in.Transport))

	cfg := in.Config.Config
	if cfg.Indicator.Enable {
		if strings.EqualFold(strings.TrimSpace(cfg.Indicator.Backend), "desktop") {
			checks = append(checks, checkBinary("busctl", "desktop indicator backend"))
		} else {
			checks = append(checks, checkBinary("hyprctl", "hypr indicator backend"))
		}
	}
	if cfg.PresentWindow && len(cfg.PresentCmd.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.PresentCmd.Argv, "present_cmd"))
	}

	return Report{Checks: checks}
}

func configMessage(loaded config.Loaded) string {
	if !loaded.Exists {
		return fmt.Sprintf("using defaults (%q not found)", loaded.Path)
	}
	return fmt.Sprintf("loaded %q", loaded.Path)
}

// checkArtifact reports what sits at the discoverable path and whether it
// belongs to uid.
func checkArtifact(path string, uid int) Check {
	info, err := endpoint.Inspect(path)
	if err != nil {
		return Check{Name: "artifact", Pass: false, Message: err.Error()}
	}
	if !info.Exists {
		return Check{Name: "artifact", Pass: true, Message: fmt.Sprintf("%s (absent)", path)}
	}

	message := path
	if info.IsLink {
		message += " -> " + info.Target
	}
	if err := endpoint.CheckOwnership(path, uid); err != nil {
		return Check{Name: "artifact", Pass: false, Message: err.Error()}
	}
	if info.HasOwner {
		message += fmt.Sprintf(" (owner uid %d)", info.Owner)
	}
	return Check{Name: "artifact", Pass: true, Message: message}
}

// checkReachable makes one connect attempt without touching the endpoint's
// lock or artifact.
func checkReachable(ctx context.Context, ep endpoint.Endpoint, opts transport.Options) Check {
	addr := ep.Addr()
	if addr == nil {
		return Check{Name: "primary", Pass: false, Message: "endpoint address is invalid"}
	}
	conn, err := transport.Dial(ctx, addr, opts)
	if err != nil {
		if errors.Is(err, transport.ErrUnreachable) {
			return Check{Name: "primary", Pass: true, Message: "no running instance"}
		}
		return Check{Name: "primary", Pass: false, Message: err.Error()}
	}
	_ = conn.Close()
	return Check{Name: "primary", Pass: true, Message: fmt.Sprintf("running instance answers at %s", addr)}
}

func checkWritableDir(name, dir string) Check {
	f, err := os.CreateTemp(dir, ".scribe-doctor-*")
	if err != nil {
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("%s not writable; socket binds directly at the artifact path", dir)}
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("%s is writable", dir)}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

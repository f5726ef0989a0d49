package version

import "testing"

func TestDefaults(t *testing.T) {
	if Version != "dev" {
		t.Errorf("default Version = %q, want %q", Version, "dev")
	}
	if GitCommit != "unknown" {
		t.Errorf("default GitCommit = %q, want %q", GitCommit, "unknown")
	}
}

func TestInfo(t *testing.T) {
	if got, want := Info(), "dev (unknown) built unknown"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}

func TestSSHClientVersion(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "v1.2.0-rc 1"
	if got, want := SSHClientVersion(), "SSH-2.0-newtcheck_v1.2.0_rc_1"; got != want {
		t.Errorf("SSHClientVersion() = %q, want %q", got, want)
	}
}

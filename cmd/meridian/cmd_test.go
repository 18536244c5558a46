package main

import (
	"testing"

	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/policy/source"
)

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"run":        false,
		"validate":   false,
		"compile":    false,
		"recordings": false,
		"version":    false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q is not registered", name)
		}
	}
}

func TestPolicyConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Routing.MockPatterns = []string{`^/api/v1/mocked/.*`}
	cfg.MockBackend.Host = "mockoon"
	cfg.MockBackend.Port = 3001

	pc := policyConfig(cfg)
	if len(pc.MockPatterns) != 1 {
		t.Errorf("MockPatterns = %v", pc.MockPatterns)
	}
	if pc.MockHost != "mockoon" || pc.MockPort != 3001 {
		t.Errorf("mock backend = %s:%d", pc.MockHost, pc.MockPort)
	}
	if pc.EmulatorLoopback != config.DefaultEmulatorLoopback {
		t.Errorf("EmulatorLoopback = %q", pc.EmulatorLoopback)
	}
}

func TestPolicyConfigFromDocument(t *testing.T) {
	cfg := config.Default()
	cfg.Routing.MockPatterns = []string{`^/from-config/.*`}
	cfg.MockBackend.Host = "mockoon"

	doc := &source.Document{
		MockPatterns: []string{`^/from-doc/.*`},
		RealPatterns: []string{`^/from-doc/real.*`},
		MockDomains:  []string{"staging"},
	}

	pc := policyConfigFromDocument(cfg, doc)
	if len(pc.MockPatterns) != 1 || pc.MockPatterns[0] != `^/from-doc/.*` {
		t.Errorf("MockPatterns = %v, want document patterns", pc.MockPatterns)
	}
	if len(pc.RealPatterns) != 1 || len(pc.MockDomains) != 1 {
		t.Errorf("rules = %v / %v", pc.RealPatterns, pc.MockDomains)
	}
	// Backend settings stay with the config file.
	if pc.MockHost != "mockoon" {
		t.Errorf("MockHost = %q, want mockoon", pc.MockHost)
	}
}

func TestNewRuleSource(t *testing.T) {
	cfg := config.Default()

	src, err := newRuleSource(cfg, nil)
	if err != nil || src != nil {
		t.Errorf("none source = %v, %v; want nil, nil", src, err)
	}

	cfg.Routing.Source.Type = "file"
	cfg.Routing.Source.Path = "rules.yaml"
	src, err = newRuleSource(cfg, nil)
	if err != nil {
		t.Fatalf("file source: %v", err)
	}
	if _, ok := src.(*source.FileSource); !ok {
		t.Errorf("file source type = %T", src)
	}
	src.Close()

	cfg.Routing.Source.Type = "git"
	cfg.Routing.Source.Git.URL = "https://example.com/rules.git"
	cfg.Routing.Source.Git.CheckoutDir = t.TempDir()
	src, err = newRuleSource(cfg, nil)
	if err != nil {
		t.Fatalf("git source: %v", err)
	}
	if _, ok := src.(*source.GitSource); !ok {
		t.Errorf("git source type = %T", src)
	}
	src.Close()
}

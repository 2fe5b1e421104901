package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunFullCycle(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"fine steps", []string{"-duration", "3.6", "-dt", "0.03125"}},
		{"one second steps", []string{"-duration", "8", "-dt", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if err := run(tt.args, &stdout, &stderr); err != nil {
				t.Fatalf("run: %v", err)
			}

			logs := stderr.String()
			for _, phase := range []string{"to=depolarizing", "to=repolarizing", "to=hyperpolarizing", "to=resting_recovery"} {
				if !strings.Contains(logs, phase) {
					t.Errorf("log missing %s:\n%s", phase, logs)
				}
			}
			if !strings.Contains(stdout.String(), "membrane potential (mV)") {
				t.Errorf("plot caption missing:\n%s", stdout.String())
			}
			if !strings.Contains(stdout.String(), "pump pulses") {
				t.Errorf("summary missing:\n%s", stdout.String())
			}
		})
	}
}

func TestParseFlagsRejectsBadStep(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero dt", []string{"-dt", "0"}},
		{"negative duration", []string{"-duration", "-1"}},
		{"unknown flag", []string{"-fps", "60"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if _, err := parseFlags(tt.args, &stderr); err == nil {
				t.Error("expected error")
			}
		})
	}
}

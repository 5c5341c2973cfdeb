package app

import (
	"errors"
	"testing"
)

func TestNewSyncRun(t *testing.T) {
	tests := []struct {
		name       string
		operation  string
		parameters string
	}{
		{name: "with parameters", operation: "RefreshJobs", parameters: "buid=13 download=true"},
		{name: "empty parameters", operation: "Migrate", parameters: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := NewSyncRun(tt.operation, tt.parameters)

			if run.Operation != tt.operation {
				t.Errorf("Operation = %q, want %q", run.Operation, tt.operation)
			}
			if run.Parameters != tt.parameters {
				t.Errorf("Parameters = %q, want %q", run.Parameters, tt.parameters)
			}
			if run.Status != StatusSuccess {
				t.Errorf("Status = %q, want %q", run.Status, StatusSuccess)
			}
			if run.Persisted() {
				t.Error("new run reports persisted")
			}
		})
	}
}

func TestSyncRun_Fail(t *testing.T) {
	run := NewSyncRun("UpdateIndex", "")
	run.Fail(nil)
	if run.Status != StatusSuccess {
		t.Errorf("Status = %q after Fail(nil), want success", run.Status)
	}
	run.Fail(errors.New("solr returned 503"))
	if run.Status != StatusError {
		t.Errorf("Status = %q, want error", run.Status)
	}
}

func TestRunParameters(t *testing.T) {
	got := RunParameters(13, map[string]bool{"download": true}, "download", "update_all")
	if want := "buid=13 download=true update_all=false"; got != want {
		t.Errorf("RunParameters() = %q, want %q", got, want)
	}
}

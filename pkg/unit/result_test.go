package unit

import (
	"reflect"
	"testing"
)

func TestResult_Transitions(t *testing.T) {
	tests := []struct {
		name     string
		apply    func(r *Result)
		want     Status
		messages []string
	}{
		{
			name:  "unset",
			apply: func(r *Result) {},
			want:  StatusUnset,
		},
		{
			name:  "success then success",
			apply: func(r *Result) { r.IsSuccess(); r.IsSuccess() },
			want:  StatusSuccess,
		},
		{
			name:     "failure is sticky",
			apply:    func(r *Result) { r.IsFailure("a"); r.IsSuccess() },
			want:     StatusFailure,
			messages: []string{"a"},
		},
		{
			name:     "success then failure",
			apply:    func(r *Result) { r.IsSuccess(); r.IsFailure("a") },
			want:     StatusFailure,
			messages: []string{"a"},
		},
		{
			name:     "failures accumulate in order",
			apply:    func(r *Result) { r.IsFailure("a"); r.IsFailure("b") },
			want:     StatusFailure,
			messages: []string{"a", "b"},
		},
		{
			name:     "error overrides failure",
			apply:    func(r *Result) { r.IsFailure("a"); r.IsError("boom") },
			want:     StatusError,
			messages: []string{"a", "boom"},
		},
		{
			name:     "error is terminal",
			apply:    func(r *Result) { r.IsError("boom"); r.IsFailure("a"); r.IsSuccess() },
			want:     StatusError,
			messages: []string{"boom"},
		},
		{
			name:     "skip from unset",
			apply:    func(r *Result) { r.IsSkipped("n/a") },
			want:     StatusSkipped,
			messages: []string{"n/a"},
		},
		{
			name:     "skip after failure ignored",
			apply:    func(r *Result) { r.IsFailure("a"); r.IsSkipped("n/a") },
			want:     StatusFailure,
			messages: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResult()
			tt.apply(r)
			if got := r.Status(); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
			got := r.Messages()
			if len(got) == 0 && len(tt.messages) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.messages) {
				t.Errorf("Messages() = %v, want %v", got, tt.messages)
			}
		})
	}
}

func TestExcluded(t *testing.T) {
	tests := []struct {
		platform string
		excluded []string
		want     bool
	}{
		{"cEOSLab", []string{"cEOSLab", "vEOS-lab"}, true},
		{"ceoslab", []string{"cEOSLab"}, true},
		{"DCS-7280SR", []string{"cEOSLab", "vEOS-lab"}, false},
		{"cEOSLab", nil, false},
	}
	for _, tt := range tests {
		if got := Excluded(tt.platform, tt.excluded); got != tt.want {
			t.Errorf("Excluded(%q, %v) = %v, want %v", tt.platform, tt.excluded, got, tt.want)
		}
	}
}

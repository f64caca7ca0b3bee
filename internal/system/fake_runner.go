package system

import (
	"context"
	"strings"
)

// FakeRunner records invocations instead of executing them. Results maps a
// command name to the error it should return.
type FakeRunner struct {
	Calls   []string
	Results map[string]error
}

func (f *FakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.Calls = append(f.Calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	return f.Results[name]
}

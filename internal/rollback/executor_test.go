package rollback

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls  []string
	failOn string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	line := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, line)
	if f.failOn != "" && strings.Contains(line, f.failOn) {
		return "boom", errors.New("exit status 1")
	}
	return "v42 Deploy abc123\nv41 Deploy def456\n", nil
}

func TestExecutor_Rollback(t *testing.T) {
	log, hook := test.NewNullLogger()
	runner := &fakeRunner{}

	err := NewExecutor(runner, "heroku", log).Rollback(context.Background(), "shop")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"heroku releases -a shop",
		"heroku rollback -a shop",
	}, runner.calls)
	assert.Equal(t, "rollback completed for shop", hook.LastEntry().Message)
}

func TestExecutor_StopsWhenReleasesFail(t *testing.T) {
	log, _ := test.NewNullLogger()
	runner := &fakeRunner{failOn: "releases"}

	err := NewExecutor(runner, "heroku", log).Rollback(context.Background(), "shop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heroku releases -a shop")
	assert.Len(t, runner.calls, 1)
}

func TestExecutor_RollbackCommandFails(t *testing.T) {
	log, _ := test.NewNullLogger()
	runner := &fakeRunner{failOn: "rollback"}

	err := NewExecutor(runner, "heroku", log).Rollback(context.Background(), "shop")
	assert.Error(t, err)
	assert.Len(t, runner.calls, 2)
}

func TestExecutor_EmptyApp(t *testing.T) {
	log, _ := test.NewNullLogger()
	runner := &fakeRunner{}

	assert.Error(t, NewExecutor(runner, "heroku", log).Rollback(context.Background(), " "))
	assert.Empty(t, runner.calls)
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	out, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo out; echo err 1>&2")
	require.NoError(t, err)
	assert.Contains(t, out, "out")
	assert.Contains(t, out, "err")

	_, err = ExecRunner{}.Run(context.Background(), "sh", "-c", "exit 3")
	assert.Error(t, err)
}

package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/mcp-harness/internal/fakebridge"
)

// TestHelperProcess is the bridge subprocess used by the tests in this package.
// It is invoked via exec.Command(os.Args[0], "-test.run=TestHelperProcess", "--").
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("HELPER_MODE") {
	case "echo":
		fmt.Fprintln(os.Stderr, "bridge ready")
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			fmt.Fprintln(os.Stdout, scanner.Text())
		}
		os.Exit(0)
	case "ignore-term":
		signal.Ignore(syscall.SIGTERM)
		fmt.Fprintln(os.Stdout, "ready")
		_, _ = io.Copy(io.Discard, os.Stdin)
		time.Sleep(time.Minute)
		os.Exit(0)
	case "crash":
		for i := 0; i < 60; i++ {
			fmt.Fprintf(os.Stderr, "line %d\n", i)
		}
		os.Exit(3)
	case "fakebridge":
		config := fakebridge.Config{}
		if err := json.Unmarshal([]byte(os.Getenv("FAKE_BRIDGE_CONFIG")), &config); err != nil {
			os.Exit(2)
		}
		if err := fakebridge.Serve(context.Background(), os.Stdin, os.Stdout, config); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(2)
}

func helper(mode string, options ...Option) *Supervisor {
	options = append([]Option{
		WithCommand(os.Args[0], "-test.run=TestHelperProcess", "--"),
		WithEnv("GO_WANT_HELPER_PROCESS=1", "HELPER_MODE="+mode),
	}, options...)
	return New(options...)
}

func TestSupervisor_Start(t *testing.T) {
	ctx := context.Background()
	process, err := helper("echo").Start(ctx)
	require.NoError(t, err)
	assert.Greater(t, process.Pid(), 0)

	_, err = process.Stdin().Write([]byte("{\"id\":1}\n"))
	require.NoError(t, err)
	line, err := bufio.NewReader(process.Stdout()).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":1}\n", line)

	require.NoError(t, process.Stop())
	require.NoError(t, process.Stop(), "stop is idempotent")
	select {
	case <-process.Exited():
	default:
		t.Fatal("process should have exited")
	}
	assert.Eventually(t, func() bool {
		tail := process.StderrTail()
		return len(tail) == 1 && tail[0] == "bridge ready"
	}, time.Second, 10*time.Millisecond)
}

func TestSupervisor_Start_Missing(t *testing.T) {
	var testCases = []struct {
		description string
		options     []Option
	}{
		{description: "empty command", options: []Option{WithCommand("")}},
		{description: "missing executable", options: []Option{WithCommand("/nonexistent/xiaohu-mcp-stdio")}},
		{description: "missing working dir", options: []Option{WithCommand(os.Args[0]), WithDir("/nonexistent/dir")}},
	}
	for _, testCase := range testCases {
		_, err := New(testCase.options...).Start(context.Background())
		var startupErr *StartupError
		assert.ErrorAs(t, err, &startupErr, testCase.description)
	}
}

func TestSupervisor_Start_CrashDuringWarmup(t *testing.T) {
	_, err := helper("crash", WithWarmup(5*time.Second), WithStderrTail(10)).Start(context.Background())
	var startupErr *StartupError
	require.ErrorAs(t, err, &startupErr)
	require.Len(t, startupErr.Stderr, 10)
	assert.Equal(t, "line 50", startupErr.Stderr[0])
	assert.Equal(t, "line 59", startupErr.Stderr[9])
	assert.Contains(t, err.Error(), "warm-up")
}

func TestProcess_Stop_Kill(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("SIGTERM is not deliverable on windows")
	}
	process, err := helper("ignore-term", WithGrace(200*time.Millisecond)).Start(context.Background())
	require.NoError(t, err)
	line, err := bufio.NewReader(process.Stdout()).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "ready\n", line)

	started := time.Now()
	require.NoError(t, process.Stop())
	assert.Less(t, time.Since(started), 10*time.Second)
	select {
	case <-process.Exited():
	default:
		t.Fatal("process should have been killed")
	}
	assert.Error(t, process.ExitErr())
}

func TestTail(t *testing.T) {
	aTail := newTail(3)
	for i := 0; i < 5; i++ {
		aTail.add(fmt.Sprintf("%d", i))
	}
	assert.Equal(t, []string{"2", "3", "4"}, aTail.snapshot())
}

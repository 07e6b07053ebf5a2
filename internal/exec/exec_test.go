package exec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCommand returns a command that prints predetermined output
func mockCommand(name string, args ...string) *exec.Cmd {
	cs := []string{"-test.run=TestHelperProcess", "--", name}
	cs = append(cs, args...)
	cmd := exec.Command(os.Args[0], cs...)
	cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
	return cmd
}

// TestHelperProcess is the mock command executor
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	// Read command from args
	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}

	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "no command specified\n")
		os.Exit(1)
	}

	switch args[0] {
	case "echo":
		if len(args) > 1 {
			fmt.Println(strings.Join(args[1:], " "))
		}
		os.Exit(0)
	case "sleep":
		if len(args) > 1 && args[1] == "10" {
			time.Sleep(10 * time.Second)
		}
		os.Exit(0)
	case "error":
		fmt.Fprintf(os.Stderr, "error occurred\n")
		os.Exit(1)
	case "success":
		fmt.Println("command succeeded")
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		os.Exit(1)
	}
}

func TestNewExecutor(t *testing.T) {
	// Test with nil options
	executor := NewExecutor(nil)
	assert.NotNil(t, executor)
	assert.Equal(t, os.Stdout, executor.stdout)
	assert.Equal(t, os.Stderr, executor.stderr)
	assert.NotNil(t, executor.commandFunc)

	// Test with custom options
	var stdout, stderr bytes.Buffer
	executor = NewExecutor(&Options{
		Stdout: &stdout,
		Stderr: &stderr,
		Env:    []string{"TEST=1"},
		Dir:    "/tmp",
	})
	assert.Equal(t, &stdout, executor.stdout)
	assert.Equal(t, &stderr, executor.stderr)
	assert.Equal(t, []string{"TEST=1"}, executor.env)
	assert.Equal(t, "/tmp", executor.dir)
}

func TestExecutor_Run(t *testing.T) {
	var stdout bytes.Buffer

	executor := NewExecutor(&Options{
		Stdout: &stdout,
	})
	executor.commandFunc = mockCommand

	err := executor.Run(context.Background(), "echo", "hello", "world")
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "hello world")
}

func TestExecutor_RunWithError(t *testing.T) {
	var stderr bytes.Buffer

	executor := NewExecutor(&Options{
		Stderr: &stderr,
	})
	executor.commandFunc = mockCommand

	err := executor.Run(context.Background(), "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error failed")
	assert.Contains(t, stderr.String(), "error occurred")
}

func TestExecutor_RunQuiet(t *testing.T) {
	var stdout, stderr bytes.Buffer

	executor := NewExecutor(&Options{
		Stdout: &stdout,
		Stderr: &stderr,
	})
	executor.commandFunc = mockCommand

	// Output is discarded even though writers are configured
	err := executor.RunQuiet(context.Background(), "echo", "hidden")
	require.NoError(t, err)
	assert.Empty(t, stdout.String())

	// Exit code still surfaces as an error
	err = executor.RunQuiet(context.Background(), "error")
	require.Error(t, err)
	assert.Empty(t, stderr.String())
}

func TestExecutor_Timeout(t *testing.T) {
	executor := NewExecutor(nil)
	executor.commandFunc = mockCommand

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := executor.Run(ctx, "sleep", "10")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestGenericCommand(t *testing.T) {
	var stdout bytes.Buffer

	executor := NewExecutor(&Options{
		Stdout: &stdout,
	})
	executor.commandFunc = mockCommand

	t.Run("basic command", func(t *testing.T) {
		cmd := NewGenericCommand(executor, "echo").
			WithArgs("hello", "world")

		err := cmd.Run(context.Background())
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "hello world")
	})

	t.Run("with environment", func(t *testing.T) {
		stdout.Reset()
		cmd := NewGenericCommand(executor, "echo").
			WithArgs("test").
			WithEnv("TEST=1", "FOO=bar")

		err := cmd.Run(context.Background())
		require.NoError(t, err)
	})

	t.Run("with directory", func(t *testing.T) {
		stdout.Reset()
		cmd := NewGenericCommand(executor, "echo").
			WithArgs("test").
			WithDir("/tmp")

		err := cmd.Run(context.Background())
		require.NoError(t, err)
	})

	t.Run("quiet mode", func(t *testing.T) {
		stdout.Reset()
		cmd := NewGenericCommand(executor, "echo").
			WithArgs("hidden").
			WithQuiet()

		err := cmd.Run(context.Background())
		require.NoError(t, err)
		assert.Empty(t, stdout.String())
	})

	t.Run("string representation", func(t *testing.T) {
		cmd := NewGenericCommand(executor, "npm").
			WithArgs("install", "dayjs@^1.11.0")

		assert.Equal(t, "npm install dayjs@^1.11.0", cmd.String())
	})

	t.Run("fluent chaining", func(t *testing.T) {
		stdout.Reset()
		err := NewGenericCommand(executor, "echo").
			WithArgs("hello").
			WithEnv("TEST=1").
			WithDir("/tmp").
			WithSpinner("Running").
			Run(context.Background())

		require.NoError(t, err)
	})
}

func TestEnhanceError(t *testing.T) {
	err := fmt.Errorf("command not found")

	enhanced := enhanceError(err, "pnpm")
	assert.Contains(t, enhanced.Error(), "Command 'pnpm' not found")
	assert.Contains(t, enhanced.Error(), "Please install it")
}

func TestContains(t *testing.T) {
	assert.True(t, contains("hello world", "world"))
	assert.True(t, contains("hello world", "hello"))
	assert.False(t, contains("hello world", "foo"))
	assert.True(t, contains("", ""))
	assert.False(t, contains("hello", "hello world"))
}

func TestPrefixWriter(t *testing.T) {
	var output bytes.Buffer
	writer := NewPrefixWriter(&output, "   | ")

	// Write single line
	n, err := writer.Write([]byte("Hello World\n"))
	assert.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, "   | Hello World\n", output.String())

	// Write partial line
	output.Reset()
	n, err = writer.Write([]byte("Partial"))
	assert.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Empty(t, output.String()) // Buffered

	// Complete the line
	n, err = writer.Write([]byte(" Line\n"))
	assert.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "   | Partial Line\n", output.String())
}

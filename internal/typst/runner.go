package typst

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"typst-relay/internal/logger"
	"typst-relay/internal/relay"
)

const (
	// DefaultBinary is resolved on PATH.
	DefaultBinary = "typst"

	// ProblemsLabel is the document state queried by Query.
	ProblemsLabel = "<problems-state>"

	// ProblemsFile receives the raw query output inside the output dir.
	ProblemsFile = "problems.json"

	filePerm = 0o644
)

// Invocation records one run of the compiler.
type Invocation struct {
	Program  string
	Args     []string
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Success reports a zero exit status.
func (inv *Invocation) Success() bool {
	return inv.ExitCode == 0
}

// Runner launches the typst binary. It holds no per-call state and is
// safe for concurrent use.
type Runner struct {
	binary string
	log    zerolog.Logger
}

// NewRunner creates a runner for the given binary name or path.
func NewRunner(binary string) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Runner{
		binary: binary,
		log:    logger.WithComponent("TYPST"),
	}
}

// Binary returns the configured program.
func (r *Runner) Binary() string {
	return r.binary
}

// QueryArgs builds the argument list for a problems-state query.
func QueryArgs(filePath string) []string {
	return []string{"query", filePath, ProblemsLabel, "--one", "--field", "value"}
}

// CompileArgs builds the argument list for a compile. Each input is passed
// as its own --input value, untouched.
func CompileArgs(inputFile, outputFile string, inputs []string) []string {
	args := make([]string, 0, 3+2*len(inputs))
	args = append(args, "compile", inputFile, outputFile)
	for _, in := range inputs {
		args = append(args, "--input", in)
	}
	return args
}

// CompileCommandLine renders a compile for humans as a `typst compile ...`
// line, whatever binary is configured. It is a diagnostic only and is never
// handed to a shell.
func CompileCommandLine(inputFile, outputFile string, inputs []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s compile \"%s\" \"%s\"", DefaultBinary, inputFile, outputFile)
	for _, in := range inputs {
		sb.WriteString(" --input ")
		sb.WriteString(in)
	}
	return sb.String()
}

// Query runs the problems-state query against filePath and stores the raw
// output as problems.json in outputDir.
func (r *Runner) Query(ctx context.Context, filePath, outputDir string) (string, error) {
	inv, err := r.run(ctx, QueryArgs(filePath))
	if err != nil {
		return "", err
	}
	if !inv.Success() {
		return "", &relay.Error{Kind: relay.KindSubprocess, Message: "Typst query failed: " + lossy(inv.Stderr)}
	}

	stdout, err := strictText(inv.Stdout)
	if err != nil {
		return "", err
	}

	dest := ProblemsPath(outputDir)
	if err := os.WriteFile(dest, inv.Stdout, filePerm); err != nil {
		return "", relay.IOError(err)
	}
	r.log.Debug().Str("file", filePath).Str("problems", dest).Msg("query finished")
	return stdout, nil
}

// Compile runs typst compile and returns its standard output.
func (r *Runner) Compile(ctx context.Context, inputFile, outputFile string, inputs []string) (string, error) {
	r.log.Info().Str("binary", r.binary).Msgf("Running: %s", CompileCommandLine(inputFile, outputFile, inputs))

	inv, err := r.run(ctx, CompileArgs(inputFile, outputFile, inputs))
	if err != nil {
		return "", err
	}
	if !inv.Success() {
		return "", &relay.Error{Kind: relay.KindSubprocess, Message: "Typst compile failed: " + lossy(inv.Stderr)}
	}
	return strictText(inv.Stdout)
}

// ProblemsPath joins outputDir and ProblemsFile, adding a separator when
// outputDir lacks one. An empty outputDir means the working directory.
func ProblemsPath(outputDir string) string {
	if outputDir == "" || os.IsPathSeparator(outputDir[len(outputDir)-1]) {
		return outputDir + ProblemsFile
	}
	return outputDir + string(filepath.Separator) + ProblemsFile
}

// run executes the binary and waits for it. A non-zero exit is reported
// through the Invocation; only a failure to launch is an error.
func (r *Runner) run(ctx context.Context, args []string) (*Invocation, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	inv := &Invocation{Program: r.binary, Args: args}
	err := cmd.Run()
	inv.Stdout = stdout.Bytes()
	inv.Stderr = stderr.Bytes()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		inv.ExitCode = exitErr.ExitCode()
	default:
		return nil, &relay.Error{Kind: relay.KindSubprocess, Err: fmt.Errorf("run %s: %w", r.binary, err)}
	}

	r.log.Debug().
		Strs("args", args).
		Int("exit", inv.ExitCode).
		Int("stdout_bytes", len(inv.Stdout)).
		Int("stderr_bytes", len(inv.Stderr)).
		Msg("process exited")
	return inv, nil
}

// lossy decodes diagnostics. Each maximal invalid subsequence becomes one
// U+FFFD: a truncated multi-byte sequence is a single replacement, while
// stray bytes are replaced one by one.
func lossy(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b) + 8)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r != utf8.RuneError || size > 1 {
			sb.Write(b[:size])
			b = b[size:]
			continue
		}
		sb.WriteRune(utf8.RuneError)
		b = b[invalidPrefix(b):]
	}
	return sb.String()
}

// invalidPrefix returns how many bytes at the start of b form the longest
// prefix of some well-formed sequence, at least 1.
func invalidPrefix(b []byte) int {
	var need int
	lo, hi := byte(0x80), byte(0xBF)
	switch c := b[0]; {
	case c >= 0xC2 && c <= 0xDF:
		need = 1
	case c == 0xE0:
		need, lo = 2, 0xA0
	case c == 0xED:
		need, hi = 2, 0x9F
	case c >= 0xE1 && c <= 0xEF:
		need = 2
	case c == 0xF0:
		need, lo = 3, 0x90
	case c == 0xF4:
		need, hi = 3, 0x8F
	case c >= 0xF1 && c <= 0xF3:
		need = 3
	default:
		return 1
	}
	n := 1
	for ; n <= need && n < len(b); n++ {
		if b[n] < lo || b[n] > hi {
			break
		}
		lo, hi = 0x80, 0xBF
	}
	return n
}

// strictText decodes primary output, rejecting invalid UTF-8.
func strictText(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", relay.EncodingError(errors.New("typst output is not valid UTF-8"))
	}
	return string(b), nil
}

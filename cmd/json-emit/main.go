// Command json-emit re-encodes and escapes JSON using the streaming writer.
//
// Commands:
//
//	json-emit reencode [--indent] [--indent-width N] [--max-depth N] [--out FILE] [file|-]
//	    Read JSON from file (or stdin if no file or "-"), re-emit it through
//	    the streaming writer to stdout or, with --out, atomically to FILE.
//
//	json-emit escape [file|-]
//	    Read raw bytes from file (or stdin) and emit the JSON string literal
//	    encoding them.
//
// Exit codes:
//
//	0  success
//	2  invalid input or usage
//	10 internal error
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/lattice-substrate/json-emit/jwerr"
	"github.com/lattice-substrate/json-emit/jwriter"
	"github.com/lattice-substrate/json-emit/jwsink"
)

const (
	exitSuccess  = 0
	exitInvalid  = 2
	exitInternal = 10
)

// maxEscapeInputSize bounds the escape subcommand's input (64 MiB).
const maxEscapeInputSize = 64 * 1024 * 1024

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "usage: json-emit <reencode|escape> [options] [file|-]")
		return exitInvalid
	}

	switch args[0] {
	case "reencode":
		return cmdReencode(args[1:], stdin, stdout, stderr)
	case "escape":
		return cmdEscape(args[1:], stdin, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", args[0])
		fmt.Fprintln(stderr, "usage: json-emit <reencode|escape> [options] [file|-]")
		return exitInvalid
	}
}

type flags struct {
	indent      bool
	indentWidth int
	maxDepth    int
	out         string
	help        bool
}

func parseFlags(args []string) (flags, []string, error) {
	f := flags{}
	var positional []string
	consumeAsPositional := false
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if consumeAsPositional {
			positional = append(positional, arg)
			continue
		}

		name, value, hasValue := strings.Cut(arg, "=")
		takeValue := func() (string, error) {
			if hasValue {
				return value, nil
			}
			i++
			if i >= len(args) {
				return "", fmt.Errorf("option %s requires a value", name)
			}
			return args[i], nil
		}

		switch name {
		case "--indent":
			f.indent = true
		case "--indent-width":
			v, err := takeValue()
			if err != nil {
				return flags{}, nil, err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 16 {
				return flags{}, nil, fmt.Errorf("invalid indent width: %s", v)
			}
			f.indentWidth = n
		case "--max-depth":
			v, err := takeValue()
			if err != nil {
				return flags{}, nil, err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return flags{}, nil, fmt.Errorf("invalid max depth: %s", v)
			}
			f.maxDepth = n
		case "--out", "-o":
			v, err := takeValue()
			if err != nil {
				return flags{}, nil, err
			}
			f.out = v
		case "--help", "-h":
			f.help = true
		case "--":
			consumeAsPositional = true
		case "-":
			positional = append(positional, arg)
		default:
			if strings.HasPrefix(arg, "-") {
				return flags{}, nil, fmt.Errorf("unknown option: %s", arg)
			}
			positional = append(positional, arg)
		}
	}
	return f, positional, nil
}

func cmdReencode(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	fl, positional, err := parseFlags(args)
	if err != nil {
		return writeErrorAndReturn(stderr, exitInvalid, "error: %v\n", err)
	}

	if fl.help {
		fmt.Fprintln(stderr, "usage: json-emit reencode [--indent] [--indent-width N] [--max-depth N] [--out FILE] [file|-]")
		fmt.Fprintln(stderr, "  Read JSON from file (or stdin), re-emit it through the streaming writer.")
		return exitSuccess
	}

	if exitCode, ok := ensureSingleInput(positional, stderr); ok {
		return exitCode
	}

	in, closeIn, err := openInput(positional, stdin)
	if err != nil {
		return writeErrorAndReturn(stderr, exitInvalid, "error: %v\n", err)
	}
	defer closeIn()

	opts := &jwriter.Options{
		Indented:            fl.indent,
		IndentWidth:         fl.indentWidth,
		MaxDepth:            fl.maxDepth,
		AllowMultipleValues: true,
	}

	if fl.out != "" {
		buf := jwsink.NewBuffer(jwsink.NewPool())
		if err := reencode(in, buf, opts); err != nil {
			return reportError(stderr, err)
		}
		if err := writeAtomic(fl.out, buf.Bytes()); err != nil {
			return writeErrorAndReturn(stderr, exitInternal, "error: %v\n", err)
		}
		return exitSuccess
	}

	sink := jwsink.NewFlushWriter(stdout, jwsink.NewPool())
	if err := reencode(in, sink, opts); err != nil {
		return reportError(stderr, err)
	}
	return exitSuccess
}

// reencode streams JSON tokens from r through a fresh writer into sink,
// flushing at the end.
func reencode(r io.Reader, sink jwsink.Sink, opts *jwriter.Options) error {
	w := jwriter.NewWriter(sink, opts)
	dec := jsontext.NewDecoder(r)

	// Track whether the next string token is a property name. The writer
	// validates structure; this only routes strings to the right call.
	var stack []byte
	afterName := false

	inObject := func() bool {
		return len(stack) > 0 && stack[len(stack)-1] == '{'
	}

	sawToken := false
	for {
		var err error
		if dec.PeekKind() == '0' {
			var raw jsontext.Value
			raw, err = dec.ReadValue()
			if err == nil {
				err = writeNumber(w, string(raw))
				afterName = false
			}
		} else {
			var tok jsontext.Token
			tok, err = dec.ReadToken()
			if err == nil {
				switch tok.Kind() {
				case '{':
					err = w.StartObject()
					stack = append(stack, '{')
					afterName = false
				case '}':
					err = w.EndObject()
					stack = stack[:len(stack)-1]
					afterName = false
				case '[':
					err = w.StartArray()
					stack = append(stack, '[')
					afterName = false
				case ']':
					err = w.EndArray()
					stack = stack[:len(stack)-1]
					afterName = false
				case '"':
					if inObject() && !afterName {
						err = w.PropertyName(tok.String())
						afterName = true
					} else {
						err = w.StringValue(tok.String())
						afterName = false
					}
				case 'n':
					err = w.NullValue()
					afterName = false
				case 't':
					err = w.BoolValue(true)
					afterName = false
				case 'f':
					err = w.BoolValue(false)
					afterName = false
				default:
					err = fmt.Errorf("unexpected token kind %q", tok.Kind())
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		sawToken = true
	}
	if !sawToken {
		return fmt.Errorf("empty input: expected a JSON value")
	}
	return w.Flush()
}

// writeNumber routes a raw JSON number token to the narrowest writer call:
// integers that fit 64 bits keep their exact value; every other number is
// rounded to the nearest float64.
func writeNumber(w *jwriter.Writer, raw string) error {
	if !strings.ContainsAny(raw, ".eE") {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return w.IntValue(v)
		}
		if v, err := strconv.ParseUint(raw, 10, 64); err == nil {
			return w.UintValue(v)
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("number %q: %w", raw, err)
	}
	return w.Float64Value(v)
}

func cmdEscape(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	fl, positional, err := parseFlags(args)
	if err != nil {
		return writeErrorAndReturn(stderr, exitInvalid, "error: %v\n", err)
	}

	if fl.help {
		fmt.Fprintln(stderr, "usage: json-emit escape [file|-]")
		fmt.Fprintln(stderr, "  Read raw bytes and emit the JSON string literal encoding them.")
		return exitSuccess
	}

	if exitCode, ok := ensureSingleInput(positional, stderr); ok {
		return exitCode
	}

	in, closeIn, err := openInput(positional, stdin)
	if err != nil {
		return writeErrorAndReturn(stderr, exitInvalid, "error: %v\n", err)
	}
	defer closeIn()

	data, err := readBounded(in, maxEscapeInputSize)
	if err != nil {
		return writeErrorAndReturn(stderr, exitInvalid, "error: reading input: %v\n", err)
	}

	sink := jwsink.NewFlushWriter(stdout, jwsink.NewPool())
	w := jwriter.NewWriter(sink, nil)
	if err := w.StringValueBytes(data); err != nil {
		return reportError(stderr, err)
	}
	if err := w.Flush(); err != nil {
		return reportError(stderr, err)
	}
	return exitSuccess
}

// reportError prints err and returns the exit code for its failure class.
// Errors from outside the writer (a malformed input stream, short reads)
// count as invalid input.
func reportError(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "error: %v\n", err)
	var je *jwerr.Error
	if errors.As(err, &je) {
		return je.Class.ExitCode()
	}
	return exitInvalid
}

func openInput(positional []string, stdin io.Reader) (io.Reader, func(), error) {
	if len(positional) == 0 || positional[0] == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(positional[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read file %q: %w", positional[0], err)
	}
	return f, func() { _ = f.Close() }, nil
}

func readBounded(r io.Reader, maxInputSize int) ([]byte, error) {
	lr := io.LimitReader(r, int64(maxInputSize)+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if len(data) > maxInputSize {
		return nil, fmt.Errorf("input exceeds maximum size %d bytes", maxInputSize)
	}
	return data, nil
}

func ensureSingleInput(positional []string, stderr io.Writer) (int, bool) {
	if len(positional) <= 1 {
		return 0, false
	}
	fmt.Fprintln(stderr, "error: multiple input files specified")
	return exitInvalid, true
}

func writeErrorAndReturn(stderr io.Writer, code int, format string, args ...any) int {
	fmt.Fprintf(stderr, format, args...)
	return code
}

// writeAtomic writes data to path via a temp file and rename, so a reader
// never observes a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".json-emit-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp to final: %w", err)
	}
	success = true
	return nil
}

package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Logger prints the colored status lines the CLI is known for to a single sink.
type Logger struct {
	out     io.Writer
	quiet   bool
	info    *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
	detail  *color.Color
}

func New(out io.Writer) *Logger {
	return &Logger{
		out:     out,
		info:    color.New(color.FgCyan),
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
		detail:  color.New(color.FgWhite),
	}
}

func Stdout() *Logger {
	return New(os.Stdout)
}

func Discard() *Logger {
	l := New(io.Discard)
	l.quiet = true
	return l
}

// SetQuiet suppresses info and progress lines; warnings and errors still print.
func (l *Logger) SetQuiet(q bool) {
	l.quiet = q
}

func (l *Logger) Writer() io.Writer {
	return l.out
}

func (l *Logger) Info(format string, args ...any) {
	if l.quiet {
		return
	}
	l.info.Fprintf(l.out, format+"\n", args...)
}

func (l *Logger) Success(format string, args ...any) {
	if l.quiet {
		return
	}
	l.success.Fprintf(l.out, format+"\n", args...)
}

func (l *Logger) Detail(format string, args ...any) {
	if l.quiet {
		return
	}
	l.detail.Fprintf(l.out, format+"\n", args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.warn.Fprintf(l.out, "⚠️  "+format+"\n", args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.fail.Fprintf(l.out, "❌ "+format+"\n", args...)
}

func (l *Logger) Println(args ...any) {
	if l.quiet {
		return
	}
	fmt.Fprintln(l.out, args...)
}

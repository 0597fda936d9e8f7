package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formwizard/pkg/definition"
	"github.com/goliatone/go-formwizard/pkg/prompt"
)

const usage = `Usage: %s <command> [flags]

Commands:
  walk   answer a wizard definition in the terminal
  lint   check definition files for unknown validators, dangling targets
         and unreachable steps
`

func main() {
	flag.Usage = func() {
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), usage, filepath.Base(os.Args[0])); err != nil {
			panic(err)
		}
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "walk":
		err = walk(ctx, args, os.Stdout)
	case "lint":
		var failed bool
		failed, err = lint(args, os.Stderr)
		if err == nil && failed {
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func walk(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("walk", flag.ExitOnError)
	defPath := fs.String("definition", "wizard.yaml", "wizard definition file (YAML or JSON)")
	output := fs.String("output", "", "file receiving the collected answers as YAML (stdout if empty)")
	verbose := fs.Bool("verbose", false, "log step transitions")
	maxSteps := fs.Int("max-steps", prompt.DefaultMaxSteps, "abort after this many steps")
	if err := fs.Parse(args); err != nil {
		return err
	}

	def, err := definition.LoadFile(*defPath)
	if err != nil {
		return err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	walker, err := prompt.NewWalker(def.Steps,
		prompt.WithDriver(&prompt.SurveyDriver{Out: out}),
		prompt.WithLogger(logger),
		prompt.WithMaxSteps(*maxSteps),
	)
	if err != nil {
		return err
	}

	res, err := walker.Walk(ctx)
	if errors.Is(err, prompt.ErrAborted) {
		return errors.New("walk aborted")
	}
	if err != nil {
		return err
	}

	raw, err := yaml.Marshal(answers{
		Wizard:  def.Name,
		End:     res.End,
		Visited: res.Visited,
		Values:  res.Values,
	})
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	if *output != "" {
		if err := os.WriteFile(*output, raw, 0o644); err != nil {
			return fmt.Errorf("write answers: %w", err)
		}
		fmt.Fprintf(out, "Answers written to %s\n", *output)
		return nil
	}
	_, err = out.Write(raw)
	return err
}

type answers struct {
	Wizard  string         `yaml:"wizard,omitempty"`
	End     string         `yaml:"end"`
	Visited []string       `yaml:"visited"`
	Values  map[string]any `yaml:"values"`
}

type violation struct {
	file string
	definition.Violation
}

// lint reports whether any file had violations. Unreadable or malformed
// files are returned as errors.
func lint(args []string, out io.Writer) (bool, error) {
	fs := flag.NewFlagSet("lint", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return false, err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{"wizard.yaml"}
	}

	var violations []violation
	for _, path := range paths {
		def, err := definition.LoadFile(path)
		if err != nil {
			return false, fmt.Errorf("lint %s: %w", path, err)
		}
		for _, v := range definition.Lint(def, definition.LintOptions{DefaultTemplates: true}) {
			violations = append(violations, violation{file: path, Violation: v})
		}
	}

	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].file < violations[j].file
	})
	for _, v := range violations {
		fmt.Fprintf(out, "%s: %s\n", v.file, v.Violation)
	}
	return len(violations) > 0, nil
}

// Package secrets writes CI-provided API keys into YAML configuration files.
//
// The file is edited as a yaml.v3 node tree so comments, key order and
// unrelated values survive the rewrite.
package secrets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/vvka-141/pgreap/pkg/pgreap"
	"gopkg.in/yaml.v3"
)

// GitRunner runs git with args. Its error is ignored by the Injector.
type GitRunner func(ctx context.Context, args ...string) error

func runGit(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	return cmd.Run()
}

// Injector copies an environment variable into a YAML file.
type Injector struct {
	out    io.Writer
	git    GitRunner
	getenv func(string) string
}

// Option configures an Injector.
type Option func(*Injector)

// WithOutput redirects the status lines (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(i *Injector) { i.out = w }
}

// WithGitRunner replaces the git invocation.
func WithGitRunner(r GitRunner) Option {
	return func(i *Injector) { i.git = r }
}

// WithGetenv replaces os.Getenv.
func WithGetenv(f func(string) string) Option {
	return func(i *Injector) { i.getenv = f }
}

func New(opts ...Option) *Injector {
	i := &Injector{
		out:    os.Stdout,
		git:    runGit,
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inject sets the dotted keyPath in file to the value of envName, then marks
// file assume-unchanged in git so the secret is not committed by accident.
//
// The file is parsed before the variable is checked: a missing or malformed
// file fails first. When the variable is unset a hint is printed, the file is
// left untouched and the error wraps pgreap.ErrMissingSecret.
func (i *Injector) Inject(ctx context.Context, file, keyPath, envName string) error {
	keys, err := splitKeyPath(keyPath)
	if err != nil {
		return err
	}

	info, err := os.Stat(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}

	value := i.getenv(envName)
	if value == "" {
		i.printMissingHint(envName)
		return fmt.Errorf("%s is not set: %w", envName, pgreap.ErrMissingSecret)
	}

	if err := setScalar(&doc, keys, value); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode %s: %w", file, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode %s: %w", file, err)
	}

	if err := os.WriteFile(file, buf.Bytes(), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", file, err)
	}

	_ = i.git(ctx, "update-index", "--assume-unchanged", file)

	fmt.Fprintln(i.out, "Updated api_key successfully")
	return nil
}

func (i *Injector) printMissingHint(envName string) {
	fmt.Fprintln(i.out, "I assume missing ENV is not intentional! If you're runing this script")
	fmt.Fprintf(i.out, "Please load `%s` in the environment\n", envName)
	fmt.Fprintf(i.out, "You can do that using `export %s=\"<api key>\"`\n", envName)
	fmt.Fprintln(i.out, "and something similar on the CI if you happen to run it on CI")
	fmt.Fprintln(i.out, "No changes made")
}

func splitKeyPath(keyPath string) ([]string, error) {
	keys := strings.Split(keyPath, ".")
	for _, k := range keys {
		if k == "" {
			return nil, fmt.Errorf("key path %q has an empty segment: %w", keyPath, pgreap.ErrInvalidConfig)
		}
	}
	return keys, nil
}

// setScalar walks keys through nested mappings and sets the last one to a
// string value. Every parent must already exist; the leaf is appended when
// absent.
func setScalar(doc *yaml.Node, keys []string, value string) error {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return fmt.Errorf("key %q not found: document is empty", keys[0])
	}
	node := doc.Content[0]

	for depth, key := range keys {
		if node.Kind != yaml.MappingNode {
			return fmt.Errorf("key %q is not a mapping", strings.Join(keys[:depth], "."))
		}

		child := lookup(node, key)
		last := depth == len(keys)-1

		if last {
			if child == nil {
				node.Content = append(node.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
					&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
				)
				return nil
			}
			child.Kind = yaml.ScalarNode
			child.Tag = "!!str"
			child.Value = value
			child.Style = 0
			child.Content = nil
			child.Alias = nil
			return nil
		}

		if child == nil {
			return fmt.Errorf("key %q not found", strings.Join(keys[:depth+1], "."))
		}
		node = child
	}
	return nil
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

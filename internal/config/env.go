package config

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// LoadEnv loads environment variables from a .env file.
// Lines have the form KEY=VALUE with an optional "export " prefix; blank
// lines and # comments are skipped and quoted values are unquoted.
// Variables that are already set are not overwritten.
func LoadEnv(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))

		if key == "" {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}

	return scanner.Err()
}

// LoadEnvOptional calls LoadEnv when the file exists.
func LoadEnvOptional(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return LoadEnv(path)
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// expandVars expands environment references and ~ in config paths
func expandVars(c *Config) {
	c.Logging.Output = expandPath(c.Logging.Output)
	c.Lock.Dir = expandPath(c.Lock.Dir)
	c.Metrics.Listen = expandEnv(c.Metrics.Listen)

	for i := range c.Targets {
		c.Targets[i].Path = expandPath(c.Targets[i].Path)
		c.Targets[i].Schedule = expandEnv(c.Targets[i].Schedule)
	}
}

// expandEnv replaces ${VAR} and ${VAR:default} references anywhere in s.
// $VAR without braces is left alone.
func expandEnv(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}

	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start == -1 {
			break
		}
		end := strings.Index(s[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(s[:start])
		key, defaultVal, hasDefault := strings.Cut(s[start+2:end], ":")
		if val := os.Getenv(key); val != "" || !hasDefault {
			b.WriteString(val)
		} else {
			b.WriteString(defaultVal)
		}
		s = s[end+1:]
	}
	b.WriteString(s)

	return b.String()
}

// expandPath expands environment references, then a leading ~/.
func expandPath(path string) string {
	path = expandEnv(path)
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

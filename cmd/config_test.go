// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cryptopan/cmd"
	"cryptopan/common/helpers"
	"cryptopan/common/helpers/yaml"
)

type dummyConfiguration struct {
	Module1 dummyModule1Configuration
	Module2 dummyModule2Configuration
}
type dummyModule1Configuration struct {
	Listen  string `validate:"listen"`
	Topic   string
	Workers int
}
type dummyModule2Configuration struct {
	Details     dummyModule2DetailsConfiguration
	Elements    []dummyModule2ElementsConfiguration
	MoreDetails `mapstructure:",squash" yaml:",inline"`
}
type MoreDetails struct {
	Stuff string
}
type dummyModule2ElementsConfiguration struct {
	Name  string
	Gauge int
}
type dummyModule2DetailsConfiguration struct {
	Workers       int
	IntervalValue time.Duration
}

func (c *dummyConfiguration) Reset() {
	*c = dummyConfiguration{
		Module1: dummyModule1Configuration{
			Listen:  "127.0.0.1:8080",
			Topic:   "nothingness",
			Workers: 100,
		},
		Module2: dummyModule2Configuration{
			MoreDetails: MoreDetails{
				Stuff: "hello",
			},
			Details: dummyModule2DetailsConfiguration{
				Workers:       1,
				IntervalValue: time.Minute,
			},
		},
	}
}

func writeConfiguration(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error:\n%+v", err)
	}
	return path
}

func TestDump(t *testing.T) {
	// Configuration file
	config := `---
module1:
 topic: flows
module2:
 details:
  workers: 5
  interval-value: 20m
 stuff: bye
 elements:
  - name: first
    gauge: 67
  - name: second
`
	c := cmd.ConfigRelatedOptions{
		Path: writeConfiguration(t, t.TempDir(), "config.yaml", config),
		Dump: true,
	}

	parsed := dummyConfiguration{}
	out := bytes.NewBuffer([]byte{})
	if err := c.Parse(out, "dummy", &parsed); err != nil {
		t.Fatalf("Parse() error:\n%+v", err)
	}
	// Expected configuration
	expected := dummyConfiguration{
		Module1: dummyModule1Configuration{
			Listen:  "127.0.0.1:8080",
			Topic:   "flows",
			Workers: 100,
		},
		Module2: dummyModule2Configuration{
			MoreDetails: MoreDetails{
				Stuff: "bye",
			},
			Details: dummyModule2DetailsConfiguration{
				Workers:       5,
				IntervalValue: 20 * time.Minute,
			},
			Elements: []dummyModule2ElementsConfiguration{
				{"first", 67},
				{"second", 0},
			},
		},
	}
	if diff := helpers.Diff(parsed, expected); diff != "" {
		t.Errorf("Parse() (-got, +want):\n%s", diff)
	}

	var gotRaw map[string]map[string]any
	if err := yaml.Unmarshal(out.Bytes(), &gotRaw); err != nil {
		t.Fatalf("Unmarshal() error:\n%+v", err)
	}
	expectedRaw := map[string]map[string]any{
		"module1": {
			"listen":  "127.0.0.1:8080",
			"topic":   "flows",
			"workers": 100,
		},
		"module2": {
			"stuff": "bye",
			"details": map[string]any{
				"workers":       5,
				"intervalvalue": "20m0s",
			},
			"elements": []any{
				map[string]any{
					"name":  "first",
					"gauge": 67,
				},
				map[string]any{
					"name":  "second",
					"gauge": 0,
				},
			},
		},
	}
	if diff := helpers.Diff(gotRaw, expectedRaw); diff != "" {
		t.Errorf("Parse() (-got, +want):\n%s", diff)
	}
}

func TestEnvOverride(t *testing.T) {
	// Configuration file
	config := `---
module1:
 topic: flows
module2:
 details:
  workers: 5
  interval-value: 20m
`
	t.Setenv("CRYPTOPAN_DUMMY_MODULE1_LISTEN", "127.0.0.1:9000")
	t.Setenv("CRYPTOPAN_DUMMY_MODULE1_TOPIC", "something")
	t.Setenv("CRYPTOPAN_DUMMY_MODULE2_DETAILS_INTERVALVALUE", "10m")
	t.Setenv("CRYPTOPAN_DUMMY_MODULE2_STUFF", "bye")
	t.Setenv("CRYPTOPAN_DUMMY_MODULE2_ELEMENTS_0_NAME", "something")
	t.Setenv("CRYPTOPAN_DUMMY_MODULE2_ELEMENTS_0_GAUGE", "18")
	t.Setenv("CRYPTOPAN_DUMMY_MODULE2_ELEMENTS_1_NAME", "something else")
	t.Setenv("CRYPTOPAN_DUMMY_MODULE2_ELEMENTS_1_GAUGE", "7")
	t.Setenv("CRYPTOPAN_OTHER_MODULE1_TOPIC", "ignored")

	c := cmd.ConfigRelatedOptions{
		Path: writeConfiguration(t, t.TempDir(), "config.yaml", config),
	}

	parsed := dummyConfiguration{}
	if err := c.Parse(&bytes.Buffer{}, "dummy", &parsed); err != nil {
		t.Fatalf("Parse() error:\n%+v", err)
	}
	// Expected configuration
	expected := dummyConfiguration{
		Module1: dummyModule1Configuration{
			Listen:  "127.0.0.1:9000",
			Topic:   "something",
			Workers: 100,
		},
		Module2: dummyModule2Configuration{
			MoreDetails: MoreDetails{
				Stuff: "bye",
			},
			Details: dummyModule2DetailsConfiguration{
				Workers:       5,
				IntervalValue: 10 * time.Minute,
			},
			Elements: []dummyModule2ElementsConfiguration{
				{"something", 18},
				{"something else", 7},
			},
		},
	}
	if diff := helpers.Diff(parsed, expected); diff != "" {
		t.Errorf("Parse() (-got, +want):\n%s", diff)
	}
}

func TestInclude(t *testing.T) {
	dir := t.TempDir()
	writeConfiguration(t, dir, "module1.yaml", "topic: included\nworkers: 3\n")
	c := cmd.ConfigRelatedOptions{
		Path: writeConfiguration(t, dir, "config.yaml", "module1: !include module1.yaml\n"),
	}
	parsed := dummyConfiguration{}
	if err := c.Parse(&bytes.Buffer{}, "dummy", &parsed); err != nil {
		t.Fatalf("Parse() error:\n%+v", err)
	}
	expected := dummyModule1Configuration{
		Listen:  "127.0.0.1:8080",
		Topic:   "included",
		Workers: 3,
	}
	if diff := helpers.Diff(parsed.Module1, expected); diff != "" {
		t.Errorf("Parse() (-got, +want):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		description string
		config      string
		env         map[string]string
	}{
		{
			description: "unknown key",
			config:      "module1:\n unknown: 1\n",
		}, {
			description: "not a number",
			config:      "module1:\n workers: many\n",
		}, {
			description: "invalid YAML",
			config:      "module1: [\n",
		}, {
			description: "invalid listen",
			config:      "module1:\n listen: nope\n",
		}, {
			description: "invalid override",
			config:      "module1:\n topic: flows\n",
			env:         map[string]string{"CRYPTOPAN_DUMMY_MODULE1_WORKERS": "many"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.description, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			c := cmd.ConfigRelatedOptions{
				Path: writeConfiguration(t, t.TempDir(), "config.yaml", tc.config),
			}
			parsed := dummyConfiguration{}
			if err := c.Parse(&bytes.Buffer{}, "dummy", &parsed); err == nil {
				t.Error("Parse() did not error")
			}
		})
	}
	t.Run("missing file", func(t *testing.T) {
		c := cmd.ConfigRelatedOptions{Path: filepath.Join(t.TempDir(), "missing.yaml")}
		parsed := dummyConfiguration{}
		if err := c.Parse(&bytes.Buffer{}, "dummy", &parsed); err == nil {
			t.Error("Parse() did not error")
		}
	})
}

// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd_test

import (
	"bytes"
	"strings"
	"testing"

	"cryptopan/cmd"
	"cryptopan/common/helpers"
)

func referenceConfiguration(t *testing.T) string {
	t.Helper()
	return writeConfiguration(t, t.TempDir(), "cryptopan.yaml",
		"anonymizer:\n key: "+referenceKey+"\n")
}

func runAnonymize(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd.AnonymizeOptions.Dump = false
	cmd.AnonymizeOptions.CheckMode = false
	cmd.AnonymizeOptions.WithInput = false
	cmd.AnonymizeOptions.Strict = false
	root := cmd.RootCmd
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(append([]string{"anonymize"}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestAnonymizeArguments(t *testing.T) {
	got, _, err := runAnonymize(t, "",
		referenceConfiguration(t), "128.11.68.132", "192.41.57.43", "::1", "2001:db8::1", "2001:db8::/32")
	if err != nil {
		t.Fatalf("`anonymize` error:\n%+v", err)
	}
	expected := `135.242.180.132
252.222.221.184
78ff:f001:9fc0:20df:8380:b1f1:704:ed
4401:2bc:603f:d91d:27f:ff8e:e6f1:dc1e
4401:2bc::/32
`
	if diff := helpers.Diff(got, expected); diff != "" {
		t.Errorf("`anonymize` (-got, +want):\n%s", diff)
	}
}

func TestAnonymizeStdin(t *testing.T) {
	input := `# some addresses
128.11.68.132

not-an-address
 ::1
`
	got, gotErr, err := runAnonymize(t, input, "--with-input", referenceConfiguration(t))
	if err != nil {
		t.Fatalf("`anonymize` error:\n%+v", err)
	}
	expected := "128.11.68.132\t135.242.180.132\n::1\t78ff:f001:9fc0:20df:8380:b1f1:704:ed\n"
	if diff := helpers.Diff(got, expected); diff != "" {
		t.Errorf("`anonymize` (-got, +want):\n%s", diff)
	}
	if !strings.HasPrefix(gotErr, "not-an-address: cannot parse address") {
		t.Errorf("`anonymize` stderr:\n%s", gotErr)
	}
}

func TestAnonymizeStrict(t *testing.T) {
	_, _, err := runAnonymize(t, "", "--strict", referenceConfiguration(t), "128.11.68.132", "nope")
	if err == nil {
		t.Fatal("`anonymize --strict` did not error")
	}
	if !strings.Contains(err.Error(), `cannot anonymize "nope"`) {
		t.Errorf("`anonymize --strict` error:\n%+v", err)
	}
}

func TestAnonymizeKeyFromEnvironment(t *testing.T) {
	path := writeConfiguration(t, t.TempDir(), "cryptopan.yaml", "anonymizer:\n cipher: aes\n")
	t.Setenv("CRYPTOPAN_ANONYMIZE_ANONYMIZER_KEY", referenceKey)
	got, _, err := runAnonymize(t, "", path, "128.11.68.132")
	if err != nil {
		t.Fatalf("`anonymize` error:\n%+v", err)
	}
	if diff := helpers.Diff(got, "135.242.180.132\n"); diff != "" {
		t.Errorf("`anonymize` (-got, +want):\n%s", diff)
	}
}

func TestAnonymizeAggregate(t *testing.T) {
	path := writeConfiguration(t, t.TempDir(), "cryptopan.yaml",
		"anonymizer:\n mode: aggregate\n aggregate:\n  ipv4-prefix: 16\n")
	got, _, err := runAnonymize(t, "", path, "128.11.68.132", "2001:db8:1:2:3::1")
	if err != nil {
		t.Fatalf("`anonymize` error:\n%+v", err)
	}
	if diff := helpers.Diff(got, "128.11.0.0\n2001:db8:1:2::\n"); diff != "" {
		t.Errorf("`anonymize` (-got, +want):\n%s", diff)
	}
}

func TestAnonymizeMissingKey(t *testing.T) {
	path := writeConfiguration(t, t.TempDir(), "cryptopan.yaml", "anonymizer:\n cipher: aes\n")
	if _, _, err := runAnonymize(t, "", path, "128.11.68.132"); err == nil {
		t.Fatal("`anonymize` did not error")
	}
}

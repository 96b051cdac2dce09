package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func captureCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	return cmd, &out, &errOut
}

const goodVCF = "BEGIN:VCARD\r\nVERSION:3.0\r\nN:Doe;Jane;;;\r\nFN:Jane Doe\r\nEND:VCARD\r\n"

func TestValidateCommand(t *testing.T) {
	path := writeTempFile(t, "good.vcf", goodVCF)
	cmd, out, _ := captureCmd()

	if err := runValidate(cmd, []string{path}); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out.String(), "1 fragment(s) OK") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestValidateCommandReportsEveryFragment(t *testing.T) {
	blob := goodVCF + "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:No Name\r\nEND:VCARD\r\n"
	path := writeTempFile(t, "mixed.vcf", blob)
	cmd, _, errOut := captureCmd()

	err := runValidate(cmd, []string{path})
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(errOut.String(), "fragment 1:") {
		t.Errorf("stderr must name the failed fragment: %q", errOut.String())
	}
}

func TestConvertCommand(t *testing.T) {
	path := writeTempFile(t, "good.vcf", goodVCF)
	cmd, out, _ := captureCmd()

	if err := runConvert(cmd, []string{path}); err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	body := out.String()
	if !strings.Contains(body, `"first_name": "Jane"`) {
		t.Errorf("expected contact JSON, got %q", body)
	}
}

func TestEncodeCommand(t *testing.T) {
	path := writeTempFile(t, "contact.json", `{"first_name":"Jane","last_name":"Doe"}`)
	cmd, out, _ := captureCmd()

	if err := runEncode(cmd, []string{path}); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	body := out.String()
	if !strings.Contains(body, "BEGIN:VCARD\nVERSION:4.0\n") {
		t.Errorf("expected vCard output, got %q", body)
	}
	if !strings.Contains(body, "FN:Jane Doe") {
		t.Errorf("expected FN line, got %q", body)
	}
}

func TestEncodeCommandArrayInput(t *testing.T) {
	path := writeTempFile(t, "contacts.json", `[{"first_name":"Jane"},{"first_name":"John"}]`)
	cmd, out, _ := captureCmd()

	if err := runEncode(cmd, []string{path}); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if got := strings.Count(out.String(), "BEGIN:VCARD"); got != 2 {
		t.Errorf("expected 2 cards, got %d", got)
	}
}

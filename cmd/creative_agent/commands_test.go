package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/creative-compliance/internal/config"
	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/editor"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

// clearEnv isolates a test from configuration in the environment or a .env file
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvGeminiAPIKeys, config.EnvGeminiAPIKey, config.EnvBGRemovalKey, config.EnvBGRemovalURL,
		config.EnvStoreBackend, config.EnvStorePath, config.EnvRedisAddr, config.EnvDatabaseURL,
		config.EnvLogMode, config.EnvExportWorkers,
	} {
		t.Setenv(k, "")
	}
	configPath, logMode, verbose = "", "", false
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	return cmd, out
}

func writeDoc(t *testing.T, formatID, headline string) string {
	t.Helper()
	f, ok := rulebook.FormatByID(formatID)
	require.True(t, ok)
	c, err := editor.New(f, rulebook.DefaultProfile(), editor.Options{})
	require.NoError(t, err)
	_, err = c.AddText(document.SubkindHeadline, headline)
	require.NoError(t, err)
	data, err := c.Serialize()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "creative.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestCheckCommand_ReportsProhibitedCopy(t *testing.T) {
	clearEnv(t)
	checkDocPath = writeDoc(t, "instagram-feed", "Win a prize today")
	checkProfile, checkJSON, checkStrict = "", true, false

	cmd, out := newTestCommand()
	require.NoError(t, runCheck(cmd, nil))

	var report types.ComplianceReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, types.StatusNonCompliant, report.Status)
	assert.True(t, report.HasErrors())
}

func TestCheckCommand_StrictFailsNonCompliant(t *testing.T) {
	clearEnv(t)
	checkDocPath = writeDoc(t, "instagram-feed", "Win a prize today")
	checkProfile, checkJSON, checkStrict = "", false, true

	cmd, out := newTestCommand()
	err := runCheck(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(types.StatusNonCompliant))
	assert.Contains(t, out.String(), "COMPLIANCE REPORT")
}

func TestCheckCommand_UnknownProfile(t *testing.T) {
	clearEnv(t)
	checkDocPath = writeDoc(t, "instagram-feed", "Fresh taste")
	checkProfile, checkJSON, checkStrict = "GOLD", false, false

	cmd, _ := newTestCommand()
	err := runCheck(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown profile")
}

func TestCheckCommand_MissingDocument(t *testing.T) {
	clearEnv(t)
	checkDocPath = filepath.Join(t.TempDir(), "missing.json")
	checkProfile, checkJSON, checkStrict = "", false, false

	cmd, _ := newTestCommand()
	err := runCheck(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read document file")
}

func TestSanitizeCommand_ReplacesTerms(t *testing.T) {
	cmd, out := newTestCommand()
	require.NoError(t, runSanitize(cmd, []string{"Win", "a", "prize"}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.NotContains(t, strings.ToLower(lines[0]), "prize")
	assert.Contains(t, strings.ToLower(out.String()), `"prize"`)
}

func TestAdaptCommand_WritesTargetFormat(t *testing.T) {
	clearEnv(t)
	adaptDocPath = writeDoc(t, "instagram-feed", "Fresh taste")
	adaptTo, adaptProfile = "instagram-story", ""
	adaptOut = filepath.Join(t.TempDir(), "story.json")

	cmd, out := newTestCommand()
	require.NoError(t, runAdapt(cmd, nil))
	assert.Contains(t, out.String(), "instagram-feed -> instagram-story")

	data, err := os.ReadFile(adaptOut)
	require.NoError(t, err)
	doc, err := document.Deserialize(data, false)
	require.NoError(t, err)
	assert.Equal(t, "instagram-story", doc.FormatID)
}

func TestAdaptCommand_UnknownFormat(t *testing.T) {
	clearEnv(t)
	adaptDocPath = writeDoc(t, "instagram-feed", "Fresh taste")
	adaptTo, adaptOut, adaptProfile = "billboard", "", ""

	cmd, _ := newTestCommand()
	err := runAdapt(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestExportCommand_WritesArchive(t *testing.T) {
	clearEnv(t)
	exportDocPath = writeDoc(t, "display-mpu", "Fresh taste")
	exportFormats = "display-mpu,display-banner"
	exportVariantsPath, exportProfile = "", ""
	exportAutoAdapt, exportCanvasWidth, exportZoom, exportJPEGTargetKB = true, 0, 1, 0
	exportOut = filepath.Join(t.TempDir(), "out.zip")

	cmd, out := newTestCommand()
	require.NoError(t, runExport(cmd, nil))
	assert.Contains(t, out.String(), "EXPORT")

	zr, err := zip.OpenReader(exportOut)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, strings.Join(names, " "), "display-mpu")
	assert.Contains(t, strings.Join(names, " "), "display-banner")
}

func TestExportCommand_BadFormatList(t *testing.T) {
	clearEnv(t)
	exportDocPath = writeDoc(t, "display-mpu", "Fresh taste")
	exportFormats = "display-mpu,billboard"
	exportVariantsPath, exportProfile = "", ""

	cmd, _ := newTestCommand()
	err := runExport(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "billboard"`)
}

func TestAICommands_RequireAPIKey(t *testing.T) {
	clearEnv(t)
	copyProduct, copyTone, copyFormat, aiOut = "Crisps", "", "", ""

	cmd, _ := newTestCommand()
	err := runCopy(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.EnvGeminiAPIKey)
}

func TestTemplatesCommands_Lifecycle(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvStorePath, filepath.Join(t.TempDir(), "store"))
	doc := writeDoc(t, "instagram-feed", "Fresh taste")

	cmd, out := newTestCommand()
	templateName = "Summer"
	require.NoError(t, templatesSaveCmd.RunE(cmd, []string{doc}))
	assert.Contains(t, out.String(), `Saved template "Summer"`)

	cmd, out = newTestCommand()
	require.NoError(t, templatesListCmd.RunE(cmd, nil))
	assert.Contains(t, out.String(), "Summer")
	assert.Contains(t, out.String(), "instagram-feed")
}

func TestKeysCommands_ShowMasksKey(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvStorePath, filepath.Join(t.TempDir(), "store"))

	cmd, _ := newTestCommand()
	require.NoError(t, keysSetCmd.RunE(cmd, []string{"gemini", "abcdefghijklmnop"}))

	cmd, out := newTestCommand()
	require.NoError(t, keysShowCmd.RunE(cmd, []string{"gemini"}))
	assert.NotContains(t, out.String(), "abcdefghijklmnop")

	cmd, _ = newTestCommand()
	require.NoError(t, keysDeleteCmd.RunE(cmd, []string{"gemini"}))
	cmd, _ = newTestCommand()
	assert.Error(t, keysShowCmd.RunE(cmd, []string{"gemini"}))
}

func TestFormatsCommand_ListsPresets(t *testing.T) {
	cmd, out := newTestCommand()
	require.NoError(t, formatsCmd.RunE(cmd, nil))
	for _, id := range rulebook.FormatIDs() {
		assert.Contains(t, out.String(), id)
	}
	assert.Contains(t, out.String(), string(types.ProfileClubcard))
}

func TestResolveFormats(t *testing.T) {
	fs, err := resolveFormats(" instagram-feed , ,display-mpu")
	require.NoError(t, err)
	require.Len(t, fs, 2)
	assert.Equal(t, "display-mpu", fs[1].ID)

	_, err = resolveFormats(" , ")
	assert.Error(t, err)
}

func TestCheckCommand_MissingDocFlag(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "check")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "required flag(s) \"doc\" not set")
}

func TestAdaptCommand_MissingFlags(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "adapt", "--doc", "creative.json")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "required flag(s) \"to\" not set")
}

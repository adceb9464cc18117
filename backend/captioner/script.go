package captioner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"taulu.fi/dataset-curator/api"
	"taulu.fi/dataset-curator/api/apitype"
	"taulu.fi/dataset-curator/common"
	"taulu.fi/dataset-curator/common/logger"
)

// ScriptCaptioner runs a local tagger script (typically a WD14 style
// Python tagger) once per image and takes its stdout as the caption.
type ScriptCaptioner struct {
	pythonPath string
	scriptPath string
	timeout    time.Duration

	api.Captioner
}

func NewScriptCaptioner(config common.CaptionerConfig) api.Captioner {
	return &ScriptCaptioner{
		pythonPath: config.PythonPath,
		scriptPath: config.ScriptPath,
		timeout:    time.Duration(config.TimeoutSecs) * time.Second,
	}
}

func (s *ScriptCaptioner) Caption(ctx context.Context, imagePath string) (string, error) {
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	command := exec.CommandContext(runCtx, s.pythonPath, s.scriptPath, "--image", imagePath)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	logger.Debug.Printf("Running tagger for '%s'", imagePath)
	err := command.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("tagger timed out after %s: %w", s.timeout, apitype.ErrTimeout)
	}
	if err != nil {
		return "", fmt.Errorf("tagger failed for '%s': %s: %w",
			imagePath, strings.TrimSpace(stderr.String()), apitype.ErrExternalFailure)
	}

	captionText := strings.TrimSpace(stdout.String())
	if captionText == "" {
		return "", fmt.Errorf("tagger produced no output for '%s': %w", imagePath, apitype.ErrExternalFailure)
	}
	return captionText, nil
}

package admission

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/bench-arena/bench-arena/internal/abstractions"
)

// Scanner runs the static admission checks over a participant's artifact
// before registration is accepted: repository origin, required layout,
// file-type blacklist, obfuscation heuristics and hardcoded-address
// detection. The artifact is checked out at the pinned commit into a
// throwaway directory.
type Scanner struct {
	logger *slog.Logger
	gitBin string
}

func NewScanner(logger *slog.Logger) abstractions.ArtifactScanner {
	return &Scanner{logger: logger, gitBin: "git"}
}

func (s *Scanner) ScanArtifact(ctx context.Context, sourceRepository string, commitHash string) (*abstractions.ScanReport, error) {
	if err := validateRepositoryURL(sourceRepository); err != nil {
		return &abstractions.ScanReport{Findings: []string{err.Error()}}, nil
	}

	repoPath, err := s.checkout(ctx, sourceRepository, commitHash)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(repoPath)

	var findings []string

	if _, err := os.Stat(filepath.Join(repoPath, "Dockerfile")); err != nil {
		findings = append(findings, "Dockerfile not found in repository root")
	}

	layoutFindings, err := scanFileLayout(repoPath)
	if err != nil {
		return nil, err
	}
	findings = append(findings, layoutFindings...)

	contentFindings, err := scanFileContents(repoPath)
	if err != nil {
		return nil, err
	}
	findings = append(findings, contentFindings...)

	report := &abstractions.ScanReport{
		Passed:   len(findings) == 0,
		Findings: findings,
	}
	s.logger.Info("Artifact scan finished",
		"repository", sourceRepository, "commit", commitHash,
		"passed", report.Passed, "findings", len(findings))
	return report, nil
}

func validateRepositoryURL(sourceRepository string) error {
	parsed, err := url.Parse(sourceRepository)
	if err != nil {
		return fmt.Errorf("invalid repository URL: %w", err)
	}
	if parsed.Host != "github.com" && parsed.Host != "www.github.com" {
		return fmt.Errorf("repository must be from github.com, got: %s", parsed.Host)
	}
	return nil
}

// checkout fetches exactly the pinned commit into a temp directory.
func (s *Scanner) checkout(ctx context.Context, sourceRepository string, commitHash string) (string, error) {
	repoPath, err := os.MkdirTemp("", "admission-scan-")
	if err != nil {
		return "", err
	}

	steps := [][]string{
		{"init", "--quiet", repoPath},
		{"-C", repoPath, "remote", "add", "origin", sourceRepository},
		{"-C", repoPath, "fetch", "--quiet", "--depth", "1", "origin", commitHash},
		{"-C", repoPath, "checkout", "--quiet", commitHash},
	}
	for _, args := range steps {
		if err := s.git(ctx, args); err != nil {
			os.RemoveAll(repoPath)
			return "", err
		}
	}
	return repoPath, nil
}

func (s *Scanner) git(ctx context.Context, args []string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.gitBin, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s: %w: %s", args[0], err, stderr.String())
	}
	return nil
}

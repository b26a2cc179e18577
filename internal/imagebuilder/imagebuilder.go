package imagebuilder

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/config"
	"github.com/bench-arena/bench-arena/pkg/api"
)

// Builder forks winning artifacts into the baseline lineage and builds
// their container images through the git and docker CLIs.
type Builder struct {
	logger          *slog.Logger
	gitBin          string
	dockerBin       string
	repositoryRoot  string
	imageRepository string
}

func NewBuilder(logger *slog.Logger, baselinesConfig *config.BaselinesConfig) (abstractions.ArtifactBuilder, error) {
	if baselinesConfig == nil || baselinesConfig.RepositoryRoot == "" {
		return nil, fmt.Errorf("baselines repository root is not configured")
	}
	if err := os.MkdirAll(baselinesConfig.RepositoryRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating baselines repository root: %w", err)
	}

	imageRepository := baselinesConfig.ImageRepository
	if imageRepository == "" {
		imageRepository = "bench-arena/baseline"
	}

	return &Builder{
		logger:          logger,
		gitBin:          "git",
		dockerBin:       "docker",
		repositoryRoot:  baselinesConfig.RepositoryRoot,
		imageRepository: imageRepository,
	}, nil
}

// ForkRepository snapshots the winning repository at the pinned commit
// under <root>/<category>/<version> and returns the snapshot path. An
// existing snapshot for the same version is replaced.
func (b *Builder) ForkRepository(ctx context.Context, sourceRepository string, commitHash string, category api.ArtifactCategory, version string) (string, error) {
	forkPath := filepath.Join(b.repositoryRoot, string(category), version)

	if err := os.RemoveAll(forkPath); err != nil {
		return "", fmt.Errorf("clearing fork directory: %w", err)
	}
	if err := os.MkdirAll(forkPath, 0o755); err != nil {
		return "", fmt.Errorf("creating fork directory: %w", err)
	}

	b.logger.Info("Forking winner repository",
		"source", sourceRepository, "commit", commitHash,
		"category", category, "version", version)

	steps := [][]string{
		{"init", "--quiet", forkPath},
		{"-C", forkPath, "remote", "add", "origin", sourceRepository},
		{"-C", forkPath, "fetch", "--quiet", "--depth", "1", "origin", commitHash},
		{"-C", forkPath, "checkout", "--quiet", commitHash},
	}
	for _, args := range steps {
		if err := b.run(ctx, b.gitBin, args); err != nil {
			return "", err
		}
	}
	return forkPath, nil
}

// BuildImage builds the baseline image from the forked repository and
// returns the image reference <repository>:<tag>-<short commit>.
func (b *Builder) BuildImage(ctx context.Context, repository string, commitHash string, tag string) (string, error) {
	shortCommit := commitHash
	if len(shortCommit) > 7 {
		shortCommit = shortCommit[:7]
	}
	imageRef := fmt.Sprintf("%s:%s-%s", b.imageRepository, strings.ToLower(tag), strings.ToLower(shortCommit))

	b.logger.Info("Building baseline image", "image", imageRef, "repository", repository)

	args := []string{"build", "--pull", "-t", imageRef, repository}
	if err := b.run(ctx, b.dockerBin, args); err != nil {
		return "", err
	}
	return imageRef, nil
}

func (b *Builder) run(ctx context.Context, bin string, args []string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", filepath.Base(bin), args[0], err, stderr.String())
	}
	return nil
}

package datasets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/config"
	"github.com/bench-arena/bench-arena/pkg/api"
)

const (
	// GroundTruthFile holds the labels the validator scores against. It is
	// staged next to the dataset but never exposed to the sandbox mount.
	GroundTruthFile = "ground_truth.json"

	mountDirName = "miner_mount"
)

// defaultAllowlist is the file set exposed to artifacts when the service
// config does not override it.
var defaultAllowlist = []string{
	"transfers.parquet",
	"address_labels.parquet",
	"assets.parquet",
	"asset_prices.parquet",
}

// Provider stages datasets under baseDir/<network>/<YYYY-MM-DD>/<window>/.
// With a bucket configured, missing datasets are pulled from object storage;
// without one only locally staged datasets are usable.
type Provider struct {
	logger    *slog.Logger
	baseDir   string
	allowlist []string
	bucket    string
	prefix    string
	client    *s3.Client
}

func NewProvider(logger *slog.Logger, datasetsConfig *config.DatasetsConfig) (abstractions.DatasetProvider, error) {
	if datasetsConfig == nil || datasetsConfig.BaseDir == "" {
		return nil, fmt.Errorf("datasets base directory is not configured")
	}
	if err := os.MkdirAll(datasetsConfig.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating datasets base directory: %w", err)
	}

	provider := &Provider{
		logger:    logger,
		baseDir:   datasetsConfig.BaseDir,
		allowlist: datasetsConfig.MountAllowlist,
		bucket:    datasetsConfig.Bucket,
		prefix:    datasetsConfig.Prefix,
	}
	if len(provider.allowlist) == 0 {
		provider.allowlist = defaultAllowlist
	}
	if provider.prefix == "" {
		provider.prefix = "snapshots"
	}

	if datasetsConfig.Bucket != "" {
		client, err := newS3Client(datasetsConfig)
		if err != nil {
			return nil, err
		}
		provider.client = client
	}

	return provider, nil
}

func newS3Client(datasetsConfig *config.DatasetsConfig) (*s3.Client, error) {
	region := datasetsConfig.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if datasetsConfig.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			datasetsConfig.AccessKeyID, datasetsConfig.SecretKey, "",
		)))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading object storage config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if datasetsConfig.Endpoint != "" {
			o.BaseEndpoint = aws.String(datasetsConfig.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// DatasetPath returns the local directory for one (network, day, window)
// cell without staging it.
func (p *Provider) DatasetPath(network string, day time.Time, windowDays int) string {
	return filepath.Join(p.baseDir, network, api.DayString(day), strconv.Itoa(windowDays))
}

// FetchDataset ensures the cell's dataset is staged locally and returns its
// path. A complete local copy short-circuits the download.
func (p *Provider) FetchDataset(ctx context.Context, network string, day time.Time, windowDays int) (string, error) {
	datasetPath := p.DatasetPath(network, day, windowDays)

	if p.isComplete(datasetPath) {
		return datasetPath, nil
	}

	if p.client == nil {
		return "", fmt.Errorf("dataset %s/%s/%d is not staged and no bucket is configured",
			network, api.DayString(day), windowDays)
	}

	p.logger.Info("Fetching dataset from object storage",
		"network", network, "test_date", api.DayString(day), "window_days", windowDays)

	if err := p.download(ctx, network, day, windowDays, datasetPath); err != nil {
		return "", err
	}
	if !p.isComplete(datasetPath) {
		return "", fmt.Errorf("dataset %s/%s/%d is incomplete after download",
			network, api.DayString(day), windowDays)
	}
	return datasetPath, nil
}

// PrepareMount builds the sandbox-visible directory out of symlinks to the
// allow-listed files. The ground-truth file stays outside the mount.
func (p *Provider) PrepareMount(ctx context.Context, datasetPath string) (string, error) {
	mountPath := filepath.Join(datasetPath, mountDirName)
	if err := os.MkdirAll(mountPath, 0o755); err != nil {
		return "", fmt.Errorf("creating mount directory: %w", err)
	}

	for _, filename := range p.allowlist {
		source := filepath.Join(datasetPath, filename)
		target := filepath.Join(mountPath, filename)

		if _, err := os.Stat(source); err != nil {
			continue
		}
		if _, err := os.Lstat(target); err == nil {
			continue
		}
		if err := os.Symlink(source, target); err != nil {
			return "", fmt.Errorf("linking %s into mount: %w", filename, err)
		}
	}

	p.logger.Info("Prepared sandbox mount", "mount_path", mountPath, "files", p.allowlist)
	return mountPath, nil
}

func (p *Provider) isComplete(datasetPath string) bool {
	for _, filename := range p.allowlist {
		if _, err := os.Stat(filepath.Join(datasetPath, filename)); err != nil {
			return false
		}
	}
	return true
}

func (p *Provider) download(ctx context.Context, network string, day time.Time, windowDays int, datasetPath string) error {
	if err := os.MkdirAll(datasetPath, 0o755); err != nil {
		return fmt.Errorf("creating dataset directory: %w", err)
	}

	keyPrefix := fmt.Sprintf("%s/%s/%s/%d", p.prefix, network, api.DayString(day), windowDays)
	for _, filename := range p.allowlist {
		key := keyPrefix + "/" + filename
		if err := p.downloadObject(ctx, key, filepath.Join(datasetPath, filename)); err != nil {
			return fmt.Errorf("downloading %s: %w", key, err)
		}
	}

	// the ground truth is staged for the validator only; a network that has
	// not published it yet still yields a runnable dataset
	groundTruthKey := keyPrefix + "/" + GroundTruthFile
	if err := p.downloadObject(ctx, groundTruthKey, filepath.Join(datasetPath, GroundTruthFile)); err != nil {
		p.logger.Warn("Ground truth not available for dataset", "key", groundTruthKey, "error", err)
	}
	return nil
}

func (p *Provider) downloadObject(ctx context.Context, key string, localPath string) error {
	object, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	defer object.Body.Close()

	file, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.ReadFrom(object.Body); err != nil {
		os.Remove(localPath)
		return err
	}
	return nil
}

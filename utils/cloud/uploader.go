package cloud

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"haruki-swf-extractor/config"
	harukiLogger "haruki-swf-extractor/utils/logger"
)

var logger = harukiLogger.NewLogger("HarukiCloudStorageUploader", "INFO", nil)

// Uploader copies one local file to a remote key.
type Uploader interface {
	Upload(ctx context.Context, localPath, remotePath string) error
	String() string
}

// ProgramUploader shells out once per file. Args equal to "src" or "dst", or
// containing "{src}" or "{dst}", are replaced with the paths.
type ProgramUploader struct {
	Program string
	Args    []string
}

func (p *ProgramUploader) String() string {
	return "program " + p.Program
}

func (p *ProgramUploader) expandArgs(src, dst string) []string {
	args := make([]string, len(p.Args))
	for i, arg := range p.Args {
		switch arg {
		case "src":
			args[i] = src
		case "dst":
			args[i] = dst
		default:
			args[i] = strings.NewReplacer("{src}", src, "{dst}", dst).Replace(arg)
		}
	}
	return args
}

func (p *ProgramUploader) Upload(ctx context.Context, localPath, remotePath string) error {
	args := p.expandArgs(localPath, remotePath)
	logger.Debugf("Uploading %s to %s using command: %s %s", localPath, remotePath, p.Program, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, p.Program, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %s %s: %w", p.Program, strings.Join(args, " "), err)
	}
	return nil
}

// NewUploader builds the uploader for one configured storage.
func NewUploader(storage config.RemoteStorageConfig) (Uploader, error) {
	switch storage.Type {
	case "program", "":
		return &ProgramUploader{Program: storage.Program, Args: storage.Args}, nil
	case "s3":
		return NewS3Uploader(storage), nil
	default:
		return nil, fmt.Errorf("unknown remote storage type %q", storage.Type)
	}
}

// RemotePath maps a file below localRoot onto a slash-separated key below
// remoteBase.
func RemotePath(localRoot, filePath, remoteBase string) (string, error) {
	rel, err := filepath.Rel(localRoot, filePath)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside %s", filePath, localRoot)
	}
	return path.Join(remoteBase, filepath.ToSlash(rel)), nil
}

// UploadToStorage uploads files concurrently, at most concurrency at a time,
// and returns the first failure after every upload has finished.
func UploadToStorage(ctx context.Context, up Uploader, files []string, localRoot, remoteBase string, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}
	semaphore := make(chan struct{}, concurrency)
	errChan := make(chan error, len(files))
	var wg sync.WaitGroup

	for _, filePath := range files {
		wg.Add(1)
		go func(filePath string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			remotePath, err := RemotePath(localRoot, filePath, remoteBase)
			if err != nil {
				errChan <- fmt.Errorf("failed to get relative path for %s: %w", filePath, err)
				return
			}
			if err := ctx.Err(); err != nil {
				errChan <- err
				return
			}
			if err := up.Upload(ctx, filePath, remotePath); err != nil {
				logger.Errorf("Failed to upload %s to %s", filePath, remotePath)
				errChan <- fmt.Errorf("failed to upload %s to %s: %w", filePath, remotePath, err)
				return
			}
			logger.Infof("Successfully uploaded %s to %s", filePath, remotePath)
		}(filePath)
	}
	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d uploads failed: %w", len(errs), len(files), errs[0])
	}
	return nil
}

// UploadToAllStorages uploads to every storage in order. Local files are
// removed only after all storages accepted them.
func UploadToAllStorages(ctx context.Context, storages []config.RemoteStorageConfig, files []string, localRoot string, concurrency int, removeLocal bool) error {
	if len(storages) == 0 {
		logger.Infof("No remote storages configured, skipping upload")
		return nil
	}

	for _, storage := range storages {
		up, err := NewUploader(storage)
		if err != nil {
			return err
		}
		logger.Infof("Uploading to remote storage: %s (%s)", storage.Base, up)
		if err := UploadToStorage(ctx, up, files, localRoot, storage.Base, concurrency); err != nil {
			return fmt.Errorf("failed to upload to storage %s: %w", storage.Base, err)
		}
		logger.Infof("Successfully uploaded all files to storage: %s", storage.Base)
	}

	if removeLocal {
		var errs []error
		for _, f := range files {
			if err := os.Remove(f); err != nil {
				logger.Warnf("Failed to delete local file %s after upload: %v", f, err)
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("uploaded but failed to delete local files: %w", errors.Join(errs...))
		}
	}
	logger.Infof("Successfully uploaded to all configured remote storages")
	return nil
}

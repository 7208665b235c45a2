package service

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/go-units"
	"github.com/moby/moby/api/pkg/stdcopy"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"

	"github.com/edplatform/judge_engine/executor/lang"
)

const sandboxDir = "/sandbox"

// DockerExecutor runs each (submission, test case) pair in a freshly
// created single-use container: no network, read-only rootfs with a
// noexec /tmp scratch, memory ceiling with swap pinned to the same
// value, half a CPU, pids and ulimit ceilings, unprivileged user,
// privilege escalation disabled. The container is force-removed on every
// exit path.
type DockerExecutor struct {
	client    *client.Client
	log       loggerv2.Logger
	registry  *lang.Registry
	buildRoot string
	maxOutput int64
}

// NewDockerExecutor connects to the container runtime and provisions
// sandbox images. An unreachable daemon is an infrastructure error: the
// caller must treat it as "judge unavailable", not as a code failure.
func NewDockerExecutor(ctx context.Context, log loggerv2.Logger, registry *lang.Registry, buildRoot string, maxOutputSize int64) (*DockerExecutor, error) {
	c, err := client.New(client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("%w: create docker client: %v", ErrUnavailable, err)
	}
	if _, err = c.Ping(ctx, client.PingOptions{}); err != nil {
		return nil, fmt.Errorf("%w: ping docker daemon: %v", ErrUnavailable, err)
	}
	e := &DockerExecutor{
		client:    c,
		log:       log,
		registry:  registry,
		buildRoot: buildRoot,
		maxOutput: maxOutputSize,
	}
	e.provisionImages(ctx)
	return e, nil
}

// provisionImages builds every registry image that is not present
// locally from its build context under buildRoot/<language>. A missing
// context is logged and skipped so the remaining languages stay usable.
func (e *DockerExecutor) provisionImages(ctx context.Context) {
	built := make(map[string]struct{})
	for _, spec := range e.registry.All() {
		if _, ok := built[spec.Image]; ok {
			continue
		}
		built[spec.Image] = struct{}{}

		exists, err := e.imageExists(ctx, spec.Image)
		if err != nil {
			e.log.WarnContext(ctx, "image lookup failed", logger.String("image", spec.Image), logger.Error(err))
			continue
		}
		if exists {
			continue
		}
		contextDir := filepath.Join(e.buildRoot, spec.ID)
		if _, err := os.Stat(contextDir); err != nil {
			// No local build context; a registry may still carry the image.
			if pullErr := e.pullImage(ctx, spec.Image); pullErr != nil {
				e.log.WarnContext(ctx, "no build context and pull failed, language unusable until image is provided",
					logger.String("image", spec.Image), logger.String("context", contextDir), logger.Error(pullErr))
			}
			continue
		}
		if err := e.buildImage(ctx, spec.Image, contextDir); err != nil {
			e.log.ErrorContext(ctx, "image build failed", logger.String("image", spec.Image), logger.Error(err))
			continue
		}
		e.log.InfoContext(ctx, "built sandbox image", logger.String("image", spec.Image))
	}
}

func (e *DockerExecutor) imageExists(ctx context.Context, image string) (bool, error) {
	filters := client.Filters{}
	filters.Add("reference", image)
	images, err := e.client.ImageList(ctx, client.ImageListOptions{Filters: filters})
	if err != nil {
		return false, fmt.Errorf("list images: %w", err)
	}
	return len(images.Items) > 0, nil
}

func (e *DockerExecutor) pullImage(ctx context.Context, image string) error {
	reader, err := e.client.ImagePull(ctx, image, client.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("pull image: %w", err)
	}
	defer reader.Close()
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

func (e *DockerExecutor) buildImage(ctx context.Context, image, contextDir string) error {
	buildCtx, err := tarDirectory(contextDir)
	if err != nil {
		return fmt.Errorf("tar build context: %w", err)
	}
	resp, err := e.client.ImageBuild(ctx, bytes.NewReader(buildCtx), client.ImageBuildOptions{
		Tags:   []string{image},
		Remove: true,
	})
	if err != nil {
		return fmt.Errorf("build image: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (e *DockerExecutor) Run(ctx context.Context, task *JudgeTask, input string) (*ExecutionOutcome, error) {
	spec, err := e.registry.Resolve(task.Language)
	if err != nil {
		return failedOutcome(err.Error()), nil
	}

	source := task.SourceCode
	if spec.ID == "java" {
		// Resolved before any container exists.
		if source, err = rewriteJavaSource(source); err != nil {
			return failedOutcome(err.Error()), nil
		}
	}

	exists, err := e.imageExists(ctx, spec.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: sandbox image %s missing", ErrUnavailable, spec.Image)
	}

	containerID, err := e.createSandbox(ctx, spec.Image, task.Limits.MemoryBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		// Forced teardown on every path, timeouts and panics included.
		removeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if _, err := e.client.ContainerRemove(removeCtx, containerID, client.ContainerRemoveOptions{Force: true}); err != nil {
			e.log.ErrorContext(removeCtx, "remove sandbox failed", logger.String("containerID", containerID), logger.Error(err))
		}
	}()

	if err = e.copyFileToContainer(ctx, containerID, sandboxDir, spec.SourceFileName, []byte(source)); err != nil {
		return nil, fmt.Errorf("%w: copy source: %v", ErrUnavailable, err)
	}

	if len(spec.CompileCommand) > 0 {
		compileCtx, cancel := context.WithTimeout(ctx, task.Limits.CompileTimeout)
		res := e.execInSandbox(compileCtx, containerID, spec.CompileCommand, "")
		cancel()
		if res.err != nil && compileCtx.Err() != context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: compile exec: %v", ErrUnavailable, res.err)
		}
		if compileCtx.Err() == context.DeadlineExceeded {
			return &ExecutionOutcome{
				Stderr:        fmt.Sprintf("compilation timed out after %s", task.Limits.CompileTimeout),
				CompileFailed: true,
			}, nil
		}
		if res.exitCode != 0 {
			return &ExecutionOutcome{
				Stderr:        capped(res.stderr, e.maxOutput),
				CompileFailed: true,
			}, nil
		}
	}

	// The run is driven on a separate goroutine with an explicit
	// deadline. When the deadline elapses first, the outcome is a
	// timeout and the worker goroutine is abandoned, never awaited;
	// the container teardown above kills whatever it left running.
	runCtx, cancel := context.WithTimeout(ctx, task.Limits.TimeLimit)
	defer cancel()

	resCh := make(chan execResult, 1)
	start := time.Now()
	go func() {
		resCh <- e.execInSandbox(runCtx, containerID, spec.RunCommand, input)
	}()

	select {
	case res := <-resCh:
		if res.err != nil {
			if runCtx.Err() == context.DeadlineExceeded {
				return &ExecutionOutcome{Duration: task.Limits.TimeLimit, TimedOut: true}, nil
			}
			return nil, fmt.Errorf("%w: run exec: %v", ErrUnavailable, res.err)
		}
		return &ExecutionOutcome{
			Stdout:   capped(res.stdout, e.maxOutput),
			Stderr:   capped(res.stderr, e.maxOutput),
			Duration: time.Since(start),
			Success:  res.exitCode == 0,
		}, nil
	case <-runCtx.Done():
		return &ExecutionOutcome{Duration: task.Limits.TimeLimit, TimedOut: true}, nil
	}
}

// createSandbox creates and starts one throwaway container. The image
// entrypoint is replaced by a sleep so the container only ever runs what
// we exec into it.
func (e *DockerExecutor) createSandbox(ctx context.Context, image string, memoryBytes int64) (string, error) {
	pidsLimit := int64(50)
	cfg := &container.Config{
		Image:      image,
		Cmd:        []string{"sleep", "300"},
		User:       "sandbox",
		WorkingDir: sandboxDir,
	}
	host := &container.HostConfig{
		NetworkMode:    "none",
		ReadonlyRootfs: true,
		SecurityOpt:    []string{"no-new-privileges:true"},
		Tmpfs: map[string]string{
			// Scratch for source and compile artifacts; /tmp stays noexec.
			sandboxDir: "size=32m,uid=1000",
			"/tmp":     "size=10m,noexec",
		},
		Resources: container.Resources{
			Memory:     memoryBytes,
			MemorySwap: memoryBytes, // swap pinned to memory: no overflow
			NanoCPUs:   500000000,   // half a CPU
			PidsLimit:  &pidsLimit,
			Ulimits: []*units.Ulimit{
				{Name: "nproc", Soft: 32, Hard: 32},
				{Name: "nofile", Soft: 64, Hard: 64},
				{Name: "fsize", Soft: 10 * 1024 * 1024, Hard: 10 * 1024 * 1024},
			},
		},
	}
	resp, err := e.client.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     cfg,
		HostConfig: host,
	})
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}
	if _, err = e.client.ContainerStart(ctx, resp.ID, client.ContainerStartOptions{}); err != nil {
		if _, rmErr := e.client.ContainerRemove(ctx, resp.ID, client.ContainerRemoveOptions{Force: true}); rmErr != nil {
			e.log.ErrorContext(ctx, "remove container failed", logger.String("containerID", resp.ID), logger.Error(rmErr))
		}
		return "", fmt.Errorf("start container: %w", err)
	}
	return resp.ID, nil
}

type execResult struct {
	stdout   string
	stderr   string
	exitCode int
	err      error
}

// execInSandbox runs cmd inside the container, optionally feeding input
// on the exec's stdin, and demultiplexes the attached output stream.
func (e *DockerExecutor) execInSandbox(ctx context.Context, containerID string, cmd []string, input string) execResult {
	created, err := e.client.ExecCreate(ctx, containerID, client.ExecCreateOptions{
		Cmd:          cmd,
		WorkingDir:   sandboxDir,
		User:         "sandbox",
		AttachStdin:  input != "",
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return execResult{exitCode: -1, err: err}
	}
	attach, err := e.client.ExecAttach(ctx, created.ID, client.ExecAttachOptions{})
	if err != nil {
		return execResult{exitCode: -1, err: err}
	}
	defer attach.Close()

	if input != "" {
		if _, err = attach.Conn.Write([]byte(input)); err != nil {
			return execResult{exitCode: -1, err: fmt.Errorf("write stdin: %w", err)}
		}
		if err = attach.CloseWrite(); err != nil {
			return execResult{exitCode: -1, err: fmt.Errorf("close stdin: %w", err)}
		}
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, copyErr := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, attach.Reader)
		done <- copyErr
	}()

	select {
	case err = <-done:
		if err != nil && err != io.EOF {
			return execResult{exitCode: -1, err: err}
		}
	case <-ctx.Done():
		return execResult{stdout: stdoutBuf.String(), stderr: stderrBuf.String(), exitCode: -1, err: ctx.Err()}
	}

	inspect, err := e.client.ExecInspect(ctx, created.ID, client.ExecInspectOptions{})
	if err != nil {
		return execResult{stdout: stdoutBuf.String(), stderr: stderrBuf.String(), exitCode: -1, err: err}
	}
	return execResult{
		stdout:   stdoutBuf.String(),
		stderr:   stderrBuf.String(),
		exitCode: inspect.ExitCode,
	}
}

func (e *DockerExecutor) copyFileToContainer(ctx context.Context, containerID, containerDir, filename string, content []byte) error {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	hdr := &tar.Header{
		Name: filepath.ToSlash(filepath.Join(containerDir, filename)),
		Mode: 0644,
		Size: int64(len(content)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if _, err := tw.Write(content); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	_, err := e.client.CopyToContainer(ctx, containerID, client.CopyToContainerOptions{
		AllowOverwriteDirWithFile: true,
		DestinationPath:           "/",
		Content:                   bytes.NewReader(buf.Bytes()),
	})
	return err
}

// tarDirectory packs dir into an in-memory tar stream for image builds.
func tarDirectory(dir string) ([]byte, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			return tw.WriteHeader(&tar.Header{Name: rel + "/", Mode: 0755, Typeflag: tar.TypeDir})
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err = tw.WriteHeader(&tar.Header{Name: rel, Mode: 0644, Size: int64(len(data))}); err != nil {
			return err
		}
		_, err = tw.Write(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err = tw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *DockerExecutor) Close(ctx context.Context) error {
	return nil
}

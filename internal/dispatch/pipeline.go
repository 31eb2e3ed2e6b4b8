package dispatch

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/leapstack-labs/chauffeur/internal/expand"
	"github.com/leapstack-labs/chauffeur/internal/fsutil"
	"github.com/leapstack-labs/chauffeur/internal/param"
	"github.com/leapstack-labs/chauffeur/pkg/core"
)

// process runs the pipeline for one instance: resolve the working
// directory, copy the template tree, render files, then invoke the
// pre, exec, and post commands in order.
func (d *Dispatcher) process(ctx context.Context, worker string, inst expand.Instance) (err error) {
	logger := d.logger.With(slog.String("worker", worker), slog.String("group", inst.Group), slog.Int("index", inst.Index))

	chain := d.chainFor(worker, inst)

	record := d.recordStart(inst)
	started := time.Now()
	defer func() {
		d.recordFinish(record, started, err)
	}()

	workDir, err := d.resolveWorkDir(chain)
	if err != nil {
		return err
	}
	record.WorkDir = workDir
	logger.Info("resolved working directory", slog.String("dir", workDir))

	if d.opts.TemplateDir != "" && !d.opts.DryRun {
		logger.Info("copying template directory", slog.String("from", d.opts.TemplateDir), slog.String("to", workDir))
		if err := fsutil.CopyTree(d.opts.TemplateDir, workDir); err != nil {
			return err
		}
	}

	if d.opts.DryRun {
		return nil
	}

	if _, statErr := os.Stat(workDir); os.IsNotExist(statErr) {
		logger.Info("creating working directory", slog.String("dir", workDir))
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			return err
		}
	}

	for _, def := range d.opts.Files {
		if err := d.renderFile(logger, def, chain); err != nil {
			return err
		}
	}

	if d.opts.DriverType == SetupDriverType {
		return nil
	}

	if d.opts.PreCommand != "" {
		if err := d.runCommand(ctx, logger, chain, workDir, "pre", d.opts.PreCommand); err != nil {
			return err
		}
	}

	if d.opts.ExecCommand != "" {
		if err := d.runCommand(ctx, logger, chain, workDir, "exec", d.opts.ExecCommand); err != nil {
			return err
		}
	}

	if d.opts.PostCommand != "" {
		if err := d.runCommand(ctx, logger, chain, workDir, "post", d.opts.PostCommand); err != nil {
			return err
		}
	}

	return nil
}

// chainFor builds the namespace chain for one instance. Precedence is
// fixed: instance, execution context, then the base layers
// (user-defined, driver).
func (d *Dispatcher) chainFor(worker string, inst expand.Instance) param.Chain {
	execCtx := param.NewNamespace("execution")
	execCtx.Set("worker", core.TextValue(worker))
	execCtx.Set("rungroup", core.TextValue(inst.Group))
	execCtx.Set("runindex", core.IntValue(int64(inst.Index)))
	execCtx.Freeze()

	instance := param.FromMap("instance", inst.Params)

	return d.opts.Base.With(execCtx).With(instance)
}

func (d *Dispatcher) resolveWorkDir(chain param.Chain) (string, error) {
	rendered, err := d.interp.Render(d.opts.RunDir, chain, d.opts.ShortFormats)
	if err != nil {
		return "", err
	}
	return fsutil.ResolveAbs(rendered)
}

// recordStart registers the instance in the state store, when one is
// configured.
func (d *Dispatcher) recordStart(inst expand.Instance) *core.InstanceRun {
	record := &core.InstanceRun{
		RunID:     d.opts.RunID,
		Group:     inst.Group,
		Index:     inst.Index,
		Status:    core.InstanceRunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if d.opts.Store != nil && d.opts.RunID != "" {
		if err := d.opts.Store.RecordInstanceRun(record); err != nil {
			d.logger.Warn("failed to record instance run", slog.String("error", err.Error()))
		}
	}
	return record
}

func (d *Dispatcher) recordFinish(record *core.InstanceRun, started time.Time, runErr error) {
	if d.opts.Store == nil || d.opts.RunID == "" || record.ID == "" {
		return
	}

	status := core.InstanceRunStatusSuccess
	errMsg := ""
	if runErr != nil {
		status = core.InstanceRunStatusFailed
		errMsg = runErr.Error()
	}

	if err := d.opts.Store.UpdateInstanceRun(record.ID, status, record.WorkDir, errMsg, time.Since(started).Milliseconds()); err != nil {
		d.logger.Warn("failed to update instance run", slog.String("error", err.Error()))
	}
}

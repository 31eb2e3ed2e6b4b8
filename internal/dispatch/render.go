package dispatch

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/chauffeur/internal/fsutil"
	"github.com/leapstack-labs/chauffeur/internal/param"
)

// renderFile renders one file definition for the current instance:
// the input template is read, interpolated with the verbose format
// table, and written to the resolved output path, overwriting any
// existing file. File-level static parameters win over instance data.
func (d *Dispatcher) renderFile(logger *slog.Logger, def FileDef, chain param.Chain) error {
	if len(def.Parameters) > 0 {
		chain = chain.With(param.FromMap("file", def.Parameters))
	}

	inPath, err := d.interp.Render(def.Input, chain, d.opts.ShortFormats)
	if err != nil {
		return fmt.Errorf("input path: %w", err)
	}
	inPath, err = fsutil.ResolveAbs(inPath)
	if err != nil {
		return err
	}

	logger.Info("loading template file", slog.String("path", inPath))
	template, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	content, err := d.interp.Render(string(template), chain, d.opts.LongFormats)
	if err != nil {
		return fmt.Errorf("render %s: %w", inPath, err)
	}

	outPath, err := d.interp.Render(def.Output, chain, d.opts.ShortFormats)
	if err != nil {
		return fmt.Errorf("output path: %w", err)
	}
	outPath, err = fsutil.ResolveAbs(outPath)
	if err != nil {
		return err
	}

	logger.Info("writing rendered file", slog.String("path", outPath))
	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write rendered file: %w", err)
	}

	if def.Type == BatchFileType {
		d.batch.Append(outPath)
	}
	return nil
}

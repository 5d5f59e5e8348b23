package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/barcoder/internal/config"
	"github.com/dgallion1/barcoder/internal/layout"
	"github.com/dgallion1/barcoder/internal/placement"
	"github.com/dgallion1/barcoder/internal/state"
	"github.com/dgallion1/barcoder/internal/symbol"
)

// NewDefaultRunner wires the layout analyzer, the Code 128 renderer and the
// pdfcpu compositor with the stamp geometry from cfg.
func NewDefaultRunner(cfg config.Config, store state.Store, log *slog.Logger) (*Runner, error) {
	stamp := placement.Stamp{
		Width:  cfg.StampWidth,
		Height: cfg.StampHeight,
		Margin: cfg.StampMargin,
	}
	rend, err := symbol.NewRenderer(symbol.Options{
		Width:  stamp.Width,
		Height: stamp.Height,
		Scale:  cfg.RasterScale,
	})
	if err != nil {
		return nil, fmt.Errorf("symbol renderer: %w", err)
	}
	analyzer := layout.NewAnalyzer(layout.DefaultBlockConfig(), log)
	return NewRunner(analyzer, rend, OpenPDF, store, stamp, NewStats(cfg.StatsWindow), log), nil
}

package progress

import (
	"context"
	"fmt"

	"github.com/whyfires/firescope/pkg/backend"
)

// Provisioner is the part of the backend client used for one-time data setup.
type Provisioner interface {
	DownloadAll(ctx context.Context) (*backend.Stream, error)
	DownloadModel(ctx context.Context) (*backend.Stream, error)
	ConvertData(ctx context.Context) (*backend.Stream, error)
	CheckData(ctx context.Context) (backend.DataStatus, error)
	SetDataSetup(ctx context.Context, done bool) error
}

// Step reports an event from one of the setup stages.
type Step func(stage string, ev backend.Event)

// Setup runs the provisioning flow: download everything, convert, then mark the backend
// as set up. With modelOnly it downloads the model and converts only if the dataset is
// already present. Each stage's stream is registered under its purpose so a concurrent
// run closes it.
func Setup(ctx context.Context, p Provisioner, reg *Registry, modelOnly bool, step Step) error {
	if reg == nil {
		reg = NewRegistry(nil)
	}
	if modelOnly {
		if err := runStage(ctx, reg, "download model", p.DownloadModel, ModelDone, step); err != nil {
			return err
		}
		st, err := p.CheckData(ctx)
		if err != nil {
			return fmt.Errorf("checking data after model download: %w", err)
		}
		if !st.CombinedExists || !st.ModelExists {
			return nil
		}
	} else {
		if err := runStage(ctx, reg, "download", p.DownloadAll, DownloadAllDone, step); err != nil {
			return err
		}
	}
	if err := runStage(ctx, reg, "convert", p.ConvertData, ConvertDone, step); err != nil {
		return err
	}
	if err := p.SetDataSetup(ctx, true); err != nil {
		return fmt.Errorf("marking data as set up: %w", err)
	}
	return nil
}

func runStage(ctx context.Context, reg *Registry, stage string, open func(context.Context) (*backend.Stream, error), done Done, step Step) error {
	purpose := PurposeDownload
	if stage == "convert" {
		purpose = PurposeConvert
	}
	s, err := open(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	reg.Start(purpose, s)
	defer reg.Release(purpose, s)

	_, err = Watch(ctx, s, done, func(ev backend.Event) {
		if step != nil {
			step(stage, ev)
		}
	})
	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return nil
}

package scheduler

import (
	"context"

	"github.com/TheBitDrifter/bark"
	"golang.org/x/sync/errgroup"

	"github.com/cindervane/forge/ecs"
)

// Dispatcher runs a compiled Schedule's stages in order, fanning each
// stage's parallel layers out across goroutines via errgroup and
// draining the world's command buffer between layers (so a later
// layer's reads observe any structural mutation an earlier layer
// queued). Grounded on spec §4.10/§5's errgroup-based layer execution
// and on `AKJUS-bsc-erigon`/`evalgo-org-eve`'s use of errgroup for
// worker fan-out.
type Dispatcher struct {
	registry *Registry
	world    *ecs.World
}

// NewDispatcher binds a Dispatcher to a registry and world.
func NewDispatcher(registry *Registry, world *ecs.World) *Dispatcher {
	return &Dispatcher{registry: registry, world: world}
}

// Run executes schedule once: every stage in order, each stage's
// conditions evaluated before its layers run, each layer's systems run
// concurrently, and the world's command buffer drained after each
// layer. A stage declared Repeat has its conditions re-evaluated after
// it runs, and runs again immediately as long as they keep holding —
// e.g. a fixed-timestep accumulator stage whose condition is "enough
// accumulated time remains for another step".
func (d *Dispatcher) Run(ctx context.Context, schedule *Schedule) error {
	for _, stage := range schedule.Stages {
		for {
			run, err := d.evaluateConditions(stage)
			if err != nil {
				return err
			}
			if !run {
				break
			}
			if err := d.runStage(ctx, stage); err != nil {
				return err
			}
			if !stage.Repeat {
				break
			}
		}
	}
	return nil
}

func (d *Dispatcher) evaluateConditions(stage Stage) (bool, error) {
	for _, cid := range stage.Conditions {
		record, err := d.registry.Condition(cid)
		if err != nil {
			return false, err
		}
		if !record.run(d.world) {
			return false, nil
		}
	}
	return true, nil
}

func (d *Dispatcher) runStage(ctx context.Context, stage Stage) error {
	for _, layer := range stage.Layers {
		// Locking for the duration of the layer means any system that
		// calls World.Add/Remove/Destroy directly (rather than through
		// its CommandBuffer argument) gets queued instead of racing with
		// its layer-mates; Unlock below drains everything once the
		// layer's goroutines have all returned.
		d.world.Lock()
		g, gctx := errgroup.WithContext(ctx)
		for _, id := range layer {
			id := id
			g.Go(func() error {
				record, err := d.registry.System(id)
				if err != nil {
					return err
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				return record.run(d.world, d.world.Buffer())
			})
		}
		err := g.Wait()
		if unlockErr := d.world.Unlock(); err == nil {
			err = unlockErr
		}
		if err != nil {
			return bark.AddTrace(err)
		}
	}
	return nil
}

package app

import (
	"testing"

	"github.com/cindervane/forge/ecs"
	"github.com/cindervane/forge/ecs/query"
)

type position struct{ X, Y float64 }
type velocity struct{ X, Y float64 }

func TestBuilderRunsStartupOnceThenMainUntilQuit(t *testing.T) {
	b := NewBuilder()
	pos := Component[position](b)
	vel := Component[velocity](b)

	startupRuns := 0
	b.StartupSystem("spawn").Call(func(commands *ecs.CommandBuffer) error {
		startupRuns++
		world := commands.World()
		e := world.Create()
		if _, err := pos.Add(e); err != nil {
			return err
		}
		return vel.Set(e, velocity{X: 1, Y: 0})
	}, Commands())

	terms := []query.Term{
		{Kind: query.TermComponent, Component: pos.ID(), Access: query.AccessWrite, Target: 0},
		{Kind: query.TermComponent, Component: vel.ID(), Access: query.AccessRead, Target: 0},
	}

	frames := 0
	b.System("move").Call(func(view *query.View, dt *ecs.DeltaTime, quit *ecs.ShouldQuit) error {
		view.Each(b.World(), func(entityAt func(int) ecs.Entity) bool {
			e := entityAt(0)
			p, v := pos.Get(e), vel.Get(e)
			p.X += v.X * float64(dt.Value)
			p.Y += v.Y * float64(dt.Value)
			return true
		})
		frames++
		if frames >= 3 {
			quit.Flag = true
		}
		return nil
	}, Query(b, terms...), DeltaTime(b), Write[ecs.ShouldQuit](b))

	if err := b.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if startupRuns != 1 {
		t.Fatalf("expected startup system to run exactly once, got %d", startupRuns)
	}
	if frames != 3 {
		t.Fatalf("expected the main schedule to run exactly 3 frames, got %d", frames)
	}
}

func TestBuilderPluginFailureAbortsRunBeforeAnySystem(t *testing.T) {
	b := NewBuilder()
	ran := false
	b.StartupSystem("never").Call(func(commands *ecs.CommandBuffer) error {
		ran = true
		return nil
	}, Commands())

	b.Plugin(func(*Builder) error { return errBoom })

	if err := b.Run(); err == nil {
		t.Fatalf("expected Run to fail after a plugin error")
	}
	if ran {
		t.Fatalf("expected no system to run once setup had already failed")
	}
}

func TestBuilderTagOrderingDrivesStageSequence(t *testing.T) {
	b := NewBuilder()
	b.Tag("input").Before("physics")

	var order []string
	b.System("read-input").Tag("input").Call(func(commands *ecs.CommandBuffer) error {
		order = append(order, "input")
		return nil
	}, Commands())
	b.System("step-physics").Tag("physics").Call(func() error {
		order = append(order, "physics")
		return nil
	})

	b.System("quit").Tag("physics").Call(func(quit *ecs.ShouldQuit) error {
		quit.Flag = true
		return nil
	}, Write[ecs.ShouldQuit](b))

	if err := b.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(order) != 2 || order[0] != "input" || order[1] != "physics" {
		t.Fatalf("expected input before physics, got %v", order)
	}
}

var errBoom = boomError{}

type boomError struct{}

func (boomError) Error() string { return "boom" }

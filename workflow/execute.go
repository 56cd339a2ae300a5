package workflow

import (
	"context"
	"fmt"

	"github.com/hereon-GEMS/pydidas-sub009/dataset"
	"github.com/hereon-GEMS/pydidas-sub009/errors"
	"github.com/hereon-GEMS/pydidas-sub009/plugin"
	"github.com/hereon-GEMS/pydidas-sub009/tree"
)

// FrameResult is the outcome of one chain branch for one frame.
type FrameResult struct {
	NodeID int
	Data   *dataset.Dataset
	Aux    plugin.Aux
}

// Results maps terminal node ids to their frame results.
type Results map[int]*FrameResult

// PreExecuteAll runs every node's PreExecute hook depth-first, once per
// pipeline lifetime. A failing node aborts the pass immediately.
func (t *Tree) PreExecuteAll() error {
	if t.preExecuted {
		return nil
	}
	if t.RootID() == tree.NoID {
		return errors.WrapConfig(errors.ErrNoRoot, "WorkflowTree", "PreExecuteAll", "root check")
	}

	ids, err := t.RecursiveIDs(t.RootID())
	if err != nil {
		return err
	}
	for _, id := range ids {
		p, err := t.Plugin(id)
		if err != nil {
			return err
		}
		if err := p.PreExecute(); err != nil {
			return errors.Wrap(err, "WorkflowTree", "PreExecuteAll",
				fmt.Sprintf("pre-execution of node %d (%s)", id, p.Meta().Name))
		}
	}
	t.preExecuted = true
	return nil
}

// PropagateShapes runs the dry-run shape pass: depth-first from the root,
// every node declares its output shape given its parent's declared shape,
// and the declared shape is pushed to all children before any child
// declares its own. Shape information therefore flows strictly downstream
// and is complete before any real data flows.
func (t *Tree) PropagateShapes() (map[int]plugin.Shape, error) {
	if t.RootID() == tree.NoID {
		return nil, errors.WrapConfig(errors.ErrNoRoot, "WorkflowTree", "PropagateShapes", "root check")
	}

	shapes := make(map[int]plugin.Shape, t.NodeCount())
	var declare func(id int, parent plugin.Shape) error
	declare = func(id int, parent plugin.Shape) error {
		p, err := t.Plugin(id)
		if err != nil {
			return err
		}
		shape, err := p.OutputShape(parent)
		if err != nil {
			return errors.Wrap(err, "WorkflowTree", "PropagateShapes",
				fmt.Sprintf("shape declaration of node %d (%s)", id, p.Meta().Name))
		}
		if len(shape) == 0 {
			return errors.WrapConfig(
				fmt.Errorf("node %d (%s): %w", id, p.Meta().Name, errors.ErrShapeUndefined),
				"WorkflowTree", "PropagateShapes", "shape validation")
		}
		shapes[id] = shape

		n, err := t.Node(id)
		if err != nil {
			return err
		}
		for _, childID := range n.ChildIDs {
			if err := declare(childID, shape); err != nil {
				return err
			}
		}
		return nil
	}

	if err := declare(t.RootID(), nil); err != nil {
		return nil, err
	}
	t.shapes = shapes
	return shapes, nil
}

// ExecuteFrame orchestrates one pipeline run over a single frame index.
//
// The pre-execution pass runs once per pipeline lifetime; the shape pass
// runs before every frame so dependent consumers can pre-allocate. During
// the execution pass the root (an input unit) is invoked with the frame
// index, and every child receives the parent's data artifact together with
// an independent copy of the auxiliary bag: siblings must never observe
// each other's bag mutations. Output units are leaves and terminate
// propagation along their branch.
//
// Results are returned for every terminal node, keyed by node id. Any
// failing node aborts the whole frame; retry of transient input failures is
// the caller's responsibility.
func (t *Tree) ExecuteFrame(ctx context.Context, frame int) (Results, error) {
	if t.RootID() == tree.NoID {
		return nil, errors.WrapConfig(errors.ErrNoRoot, "WorkflowTree", "ExecuteFrame", "root check")
	}

	rootPlugin, err := t.Plugin(t.RootID())
	if err != nil {
		return nil, err
	}
	if rootPlugin.Meta().Kind != plugin.KindInput {
		return nil, errors.WrapConfig(
			fmt.Errorf("root node %d is %q, want %q: %w",
				t.RootID(), rootPlugin.Meta().Kind, plugin.KindInput, errors.ErrInvalidConfig),
			"WorkflowTree", "ExecuteFrame", "root kind check")
	}

	if err := t.PreExecuteAll(); err != nil {
		return nil, err
	}
	if _, err := t.PropagateShapes(); err != nil {
		return nil, err
	}

	results := make(Results)
	var walk func(id int, data *dataset.Dataset, aux plugin.Aux) error
	walk = func(id int, data *dataset.Dataset, aux plugin.Aux) error {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "WorkflowTree", "ExecuteFrame", "context check")
		}

		p, err := t.Plugin(id)
		if err != nil {
			return err
		}
		out, outAux, err := p.Execute(ctx, frame, data, aux)
		if err != nil {
			return errors.Wrap(err, "WorkflowTree", "ExecuteFrame",
				fmt.Sprintf("execution of node %d (%s)", id, p.Meta().Name))
		}

		n, err := t.Node(id)
		if err != nil {
			return err
		}
		terminal := p.Meta().Kind == plugin.KindOutput || len(n.ChildIDs) == 0
		if terminal {
			results[id] = &FrameResult{NodeID: id, Data: out, Aux: outAux}
		}
		if p.Meta().Kind == plugin.KindOutput {
			return nil
		}
		for _, childID := range n.ChildIDs {
			// Each branch gets its own bag copy: fan-out nodes stay
			// independent.
			if err := walk(childID, out, outAux.Clone()); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(t.RootID(), nil, make(plugin.Aux)); err != nil {
		return nil, err
	}
	return results, nil
}

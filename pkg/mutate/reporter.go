package mutate

import (
	"slices"

	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// ConvertOrphanToReporter removes an orphan root from its position and makes
// it the reporter value of target's input key. The orphan's successors
// take over its root position. A reporter already bound to the input is
// popped out as a new orphan root.
//
// Type compatibility is not checked: callers confirm mismatches with the
// user before calling.
func (e *Engine) ConvertOrphanToReporter(orphan, target, key string) error {
	if key == "" {
		return failf(ErrInvalidInputKey, "empty key")
	}
	if orphan == target {
		return failf(ErrSelfConnection, "%s", orphan)
	}
	return e.apply("convert_orphan_to_reporter", func(t *tree.Tree) error {
		lo, err := find(t, orphan)
		if err != nil {
			return err
		}
		if !lo.IsRootHead() || !lo.IsOrphan() {
			return failf(ErrNotOrphan, "%s", orphan)
		}
		lt, err := find(t, target)
		if err != nil {
			return err
		}
		if lo.Workflow != lt.Workflow {
			return failf(ErrCrossWorkflow, "%s -> %s", orphan, target)
		}
		if slices.Contains(tree.Subtree(lo.Node), target) {
			return failf(ErrCycle, "%s is inside %s", target, orphan)
		}

		wf := lo.Workflow
		n := lo.Node
		i := wf.RootIndex(n)
		if n.Next != nil {
			wf.Roots[i] = n.Next
			n.Next = nil
		} else {
			wf.RemoveRoot(i)
		}

		dst := lt.Node
		if prev, ok := dst.Input(key).(tree.Reporter); ok && prev.Node != nil {
			addRoot(wf, prev.Node)
		}
		dst.SetInput(key, tree.Reporter{Node: n})
		return nil
	})
}

// DeleteReporter resets the reporter at path under parent to the empty
// value. Reporters nested inside it go with it.
func (e *Engine) DeleteReporter(parent string, path []string) error {
	return e.apply("delete_reporter", func(t *tree.Tree) error {
		lp, err := find(t, parent)
		if err != nil {
			return err
		}
		if _, err := reporterAt(lp.Node, path); err != nil {
			return err
		}
		tree.SetValueAt(lp.Node, path, tree.Empty())
		return nil
	})
}

// DetachReporter moves the reporter at path under parent out of the input
// and into a new orphan root, resetting the input to empty. It returns the
// reporter's node ID.
func (e *Engine) DetachReporter(parent string, path []string) (string, error) {
	var id string
	err := e.apply("detach_reporter", func(t *tree.Tree) error {
		lp, err := find(t, parent)
		if err != nil {
			return err
		}
		rep, err := reporterAt(lp.Node, path)
		if err != nil {
			return err
		}
		tree.SetValueAt(lp.Node, path, tree.Empty())
		rep.Node.Next = nil
		addRoot(lp.Workflow, rep.Node)
		id = rep.Node.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func reporterAt(n *tree.Node, path []string) (tree.Reporter, error) {
	v, ok := tree.ValueAt(n, path)
	if !ok {
		return tree.Reporter{}, failf(ErrReporterNotFound, "%s %v", n.ID, path)
	}
	rep, ok := v.(tree.Reporter)
	if !ok || rep.Node == nil {
		return tree.Reporter{}, failf(ErrReporterNotFound, "%s %v", n.ID, path)
	}
	return rep, nil
}

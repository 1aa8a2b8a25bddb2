package engine

import (
	"fmt"

	"github.com/emonkak/barebind-sub006/internal/host"
)

// Component is a plain function that, given persistent per-instance state
// reached through the RenderContext, produces a declarative value describing
// what to display. Returning ErrRenderPending parks the instance in the
// suspended set; any other error fails the render.
type Component func(rc *RenderContext) (any, error)

// ComponentBinding is the live instance of a component at one mount point.
// It owns the instance's hook store and render priority, and is the unit the
// scheduler dedupes on: at most one update task is outstanding per binding.
type ComponentBinding struct {
	token string
	seq   int64

	component Component
	props     any
	part      Part
	env       *EnvScope
	store     *hookStore

	// start/end are the binding's boundary markers in the tree; rendered
	// content lives between them, so Range is always well defined even
	// while the content is empty.
	start any
	end   any

	// pendingReq is the coalescing update request that has not reached
	// the scheduler yet; merged into by requests issued before the
	// microtask fires.
	pendingReq *UpdateTask

	// content is the binding for the last committed render output.
	content Binding

	// priority is the lane of the most recent scheduled render.
	priority host.Priority

	connected bool
	unmounted bool
	idSeq     int
}

func (e *Engine) newComponentBinding(v ComponentValue, part Part, parentEnv *EnvScope) *ComponentBinding {
	e.bindingSeq++
	return &ComponentBinding{
		token:     e.tokens.Generate(),
		seq:       e.bindingSeq,
		component: v.Component,
		props:     v.Props,
		part:      part,
		env:       NewEnvScope(parentEnv),
		store:     &hookStore{},
		priority:  host.DefaultPriority,
	}
}

// Token returns the binding's instance token.
func (b *ComponentBinding) Token() string { return b.token }

// Priority returns the lane of the binding's most recent scheduled render.
func (b *ComponentBinding) Priority() host.Priority { return b.priority }

// ForceUpdate schedules a re-render regardless of state changes. Multiple
// calls before the coalescing point fires share one task whose options are
// the shallow merge of every call's options.
func (b *ComponentBinding) ForceUpdate(e *Engine, opts UpdateOptions) *UpdateTask {
	return b.requestUpdate(e, opts)
}

// Connect implements Binding: mounts the boundary markers. The first render
// is requested by Bind.
func (b *ComponentBinding) Connect(e *Engine) error {
	if b.connected {
		return nil
	}
	b.start = b.part.Tree.CreateMarker(b.token)
	b.end = b.part.Tree.CreateMarker("/" + b.token)
	b.part.insert(b.start)
	b.part.insert(b.end)
	b.connected = true
	return nil
}

// Bind implements Binding: adopts the new component function and props, and
// requests a render at the host's current priority.
func (b *ComponentBinding) Bind(value any, e *Engine) error {
	v, ok := value.(ComponentValue)
	if !ok {
		return newValueMismatchError("ComponentValue", value)
	}
	b.component = v.Component
	b.props = v.Props
	b.requestUpdate(e, UpdateOptions{})
	return nil
}

// Commit implements Binding. A component's own render commits its content
// through the update queue, so there is nothing synchronous to flush here.
func (b *ComponentBinding) Commit(e *Engine) error { return nil }

// Unbind implements Binding: cancels any pending update, runs every hook
// cleanup in reverse registration order, and releases the content's value.
// Uncommitted pending state is discarded with the hook store.
func (b *ComponentBinding) Unbind(e *Engine) {
	b.unmounted = true
	b.cancel(e)
	for _, fn := range b.store.cleanups() {
		e.emit(Event{Kind: EventCleanup, Token: b.token})
		fn()
	}
	b.store.retire()
	if b.content != nil {
		b.content.Unbind(e)
	}
}

// Disconnect implements Binding: tears the content and boundary markers out
// of the tree.
func (b *ComponentBinding) Disconnect(e *Engine) {
	b.unmounted = true
	if b.content != nil {
		b.content.Disconnect(e)
		b.content = nil
	}
	if b.connected {
		b.part.Tree.Remove(b.start)
		b.part.Tree.Remove(b.end)
		b.connected = false
	}
}

// Range implements Binding.
func (b *ComponentBinding) Range() (any, any) { return b.start, b.end }

// requestUpdate is the single coalescing point for dispatches and force
// updates. The first request queues one host microtask; requests arriving
// before it fires merge their options into the same task. The microtask then
// submits the task to the scheduler exactly once.
func (b *ComponentBinding) requestUpdate(e *Engine, opts UpdateOptions) *UpdateTask {
	if b.unmounted {
		t := newUpdateTask(b, opts)
		t.complete(newUnmountedError(b.token))
		return t
	}
	if b.pendingReq != nil {
		b.pendingReq.merge(opts)
		e.emit(Event{Kind: EventCoalesce, Token: b.token, Priority: b.pendingReq.opts.Priority.String()})
		return b.pendingReq
	}
	t := newUpdateTask(b, opts)
	b.pendingReq = t
	e.backend.QueueMicrotask(func() {
		if b.pendingReq != t {
			// Cancelled by unmount before the coalescing point fired.
			return
		}
		b.pendingReq = nil
		e.submit(t)
	})
	return t
}

// cancel suppresses any update the binding has in flight: the pre-submit
// request, the dirty-set entry, and suspended-set membership.
func (b *ComponentBinding) cancel(e *Engine) {
	if t := b.pendingReq; t != nil {
		b.pendingReq = nil
		t.complete(newUnmountedError(b.token))
	}
	if t := e.dirty[b]; t != nil {
		delete(e.dirty, b)
		t.complete(newUnmountedError(b.token))
	}
	for i, s := range e.suspended {
		if s == b {
			e.suspended = append(e.suspended[:i], e.suspended[i+1:]...)
			break
		}
	}
}

// commitRender applies a completed render's output value, rebinding or
// replacing the content binding. Runs in the mutation phase.
func (b *ComponentBinding) commitRender(e *Engine, value any) {
	if b.unmounted {
		return
	}
	content, err := e.rebind(b.content, value, b.part.withAnchor(b.end), b.env)
	b.content = content
	if err != nil {
		e.raise(err)
	}
}

// nextID mints the value for one identifier hook position.
func (b *ComponentBinding) nextID() string {
	b.idSeq++
	return fmt.Sprintf("b%d:%d", b.seq, b.idSeq)
}

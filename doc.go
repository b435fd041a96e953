// Package texstate tracks the usage state of GPU texture subresources and
// computes the barriers needed between uses.
//
// # Overview
//
// A texture is made of subresources addressed by aspect (color, depth,
// stencil), mip level and array layer. Within a tracking scope, such as a
// render pass or a command buffer, every subresource has an initial usage
// (the first one the scope saw) and a last usage (the current one). Both are
// recorded in a [Unit].
//
// [TextureStates] stores these units compactly. Color subresources are kept
// per mip level as a sorted list of layer ranges; depth and stencil share
// one list of layer ranges for all mip levels. Adjacent ranges holding the
// same state are joined after every change, so a texture used uniformly
// costs a single entry per mip level.
//
// # Changing usage
//
// [TextureStates.Change] moves a [Selector]'s subresources to a new usage.
// It runs in one of two modes, chosen by its out parameter:
//
//   - Explicit (out != nil): every subresource whose usage differs records a
//     [PendingTransition] and takes the new usage.
//   - Implicit (out == nil): compatible read usages accumulate into a union;
//     a write meeting any other usage fails with a [*ConflictError].
//
//	var barriers []texstate.PendingTransition
//	sel := texstate.FullSelector(texstate.AspectColor, mips, layers)
//	_ = states.Change(id, sel, texstate.UsesColorTarget, &barriers)
//	_ = states.Change(id, sel, texstate.UsesResource, &barriers)
//	// barriers holds one color_target -> resource transition per mip level.
//
// # Merging scopes
//
// [TextureStates.Merge] appends one scope's history to another. Each
// subresource of the receiving scope moves from its last usage to the usage
// the other scope started from ([StitchInit]) or ended at ([StitchLast]).
// [Tracker] does the same for every texture of a scope, optionally on a
// worker pool.
//
// # Barriers
//
// Transitions convert to HAL barriers with [PendingTransition.IntoHAL] or
// [Barriers]; usages map onto [gputypes.TextureUsage] and selectors onto
// [hal.TextureRange].
//
// # Logging
//
// texstate is silent by default. Call [SetLogger] to receive records from
// trackers and the trace replayer.
package texstate

// Package event provides the in-process Event Bus for piston.
//
// Modules publish typed notifications without knowing who observes them.
// Listeners are registered either from a declared handler table
// (ListenerSet) or as plain callbacks (Subscribe, On). Both forms produce a
// RegisteredListener, so dispatch does not care where a listener came from.
//
// # Keys and capabilities
//
// Every event reports an exact Key (for example "player.join"). An event may
// also report capability tags through the Tagged interface; a listener bound
// to a tag observes every event carrying it. KeyAll matches every event.
//
//	player.join   - exact key of a join event
//	player        - capability tag carried by every player event
//	*             - all events
//
// The union of listeners for the exact key, each tag and KeyAll is resolved
// once per registry snapshot and cached, so a fire never walks type
// hierarchies.
//
// # Ordering
//
// Listeners run from PriorityHighest down to PriorityLowest. PriorityMonitor
// listeners always run last, after every other listener has had its say.
// Listeners with equal priority run in registration order.
//
// # Cancellation
//
// When an event implements Cancellable and has been cancelled by an earlier
// listener, listeners registered with ignoreCancelled (the default) are
// skipped. Listeners that opted in with WithReceiveCancelled still run.
//
// # Failure isolation
//
// A listener that returns an error or panics never stops delivery to the
// remaining listeners. The failure is wrapped in a ListenerError and handed
// to the bus ErrorHandler; Fire itself never fails.
//
// # Delivery
//
// Fire runs on the calling goroutine. FireAsync submits the same dispatch to
// a background worker and returns a Future that resolves with the event
// once every listener has run. Listeners never run concurrently for a single
// fire.
//
// # Usage
//
//	bus := event.NewBus(event.WithLogger(log))
//	defer bus.Close(ctx)
//
//	event.On(bus, events.KeyPlayerChat, func(ctx context.Context, e *events.PlayerChat) error {
//	    if strings.Contains(e.Message(), "spam") {
//	        e.SetCancelled(true)
//	    }
//	    return nil
//	}, event.WithPriority(event.PriorityHigh))
//
//	bus.Fire(ctx, events.NewPlayerChat(player, "hello", "<%s> %s"))
package event

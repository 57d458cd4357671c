// Package events defines the concrete events fired through the piston
// event bus. Each event type has a key constant and a constructor. Events
// are grouped by their source:
//
//   - Player events: join, quit, chat, move (all tagged TagPlayer)
//   - Simple events: ad-hoc named events carrying arbitrary data
//   - Plugin events: plugin enable and disable
//   - Scheduled events: cron jobs firing
//
// # Usage
//
//	bus := event.NewBus()
//	event.On(bus, events.TagPlayer, func(ctx context.Context, e events.PlayerEvent) error {
//	    log.Info("%s did something", e.Player().Name())
//	    return nil
//	})
//
//	chat := events.NewPlayerChat(player, "hello", events.DefaultChatFormat)
//	bus.Fire(ctx, chat)
//	if !chat.IsCancelled() {
//	    srv.Broadcast(chat.Formatted())
//	}
//
// The host-side flows in bridge.go (Join, Quit, Chat, Move) perform the
// fire-then-apply sequence a platform bridge needs.
//
// # Key Naming Convention
//
// Keys follow dot-notation: <source>.<action>, for example player.chat or
// plugin.enable. Simple events use their own name as key.
//
// # Fields
//
// Every event here implements event.Fielded so script plugins can read
// and modify it by field name.
package events
